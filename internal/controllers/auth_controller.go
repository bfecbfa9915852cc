package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/dtos"
	"github.com/ienerzy/auth-service/internal/middleware"
	"github.com/ienerzy/auth-service/internal/services"
	"github.com/ienerzy/auth-service/internal/utils"
)

type AuthController struct {
	auth services.AuthService
	cfg  *config.Config
}

func NewAuthController(auth services.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{auth: auth, cfg: cfg}
}

var validate = validator.New()

// ---------------------------------------------------------------------
// Login (OTP request)
// ---------------------------------------------------------------------

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Phone must be a 10-digit number", nil, err,
		)
		return
	}

	result, err := c.auth.RequestOTP(r.Context(), req.Phone, req.UserType)
	if err != nil {
		c.respondAuthError(w, err)
		return
	}

	resp := dtos.LoginResponse{
		Success:   true,
		Message:   "OTP sent",
		Phone:     result.Phone,
		ExpiresIn: int(result.ExpiresIn.Seconds()),
	}
	if result.FallbackCode != "" {
		resp.Message = "OTP generated (SMS delivery unavailable)"
		resp.OTP = result.FallbackCode
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------
// VerifyOTP
// ---------------------------------------------------------------------

func (c *AuthController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Phone and 6-digit OTP are required", nil, err,
		)
		return
	}

	result, err := c.auth.VerifyOTP(r.Context(), req.Phone, req.OTP, clientMeta(r))
	if err != nil {
		c.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.VerifyOTPResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

// ---------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------

func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dtos.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "refreshToken is required", nil, err,
		)
		return
	}

	access, refresh, err := c.auth.Refresh(r.Context(), req.RefreshToken, clientMeta(r))
	if err != nil {
		c.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.RefreshResponse{
		Token:        access,
		RefreshToken: refresh,
	})
}

// ---------------------------------------------------------------------
// Logout / LogoutAll
// ---------------------------------------------------------------------

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	claims, token, ok := c.authenticatedToken(w, r)
	if !ok {
		return
	}

	if err := c.auth.Logout(r.Context(), token, claims); err != nil {
		c.respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Logged out",
	})
}

func (c *AuthController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, token, ok := c.authenticatedToken(w, r)
	if !ok {
		return
	}

	if err := c.auth.LogoutAll(r.Context(), token, claims); err != nil {
		c.respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Logged out of all devices",
	})
}

// ---------------------------------------------------------------------
// Sessions / Me
// ---------------------------------------------------------------------

func (c *AuthController) Sessions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", nil,
		)
		return
	}

	sessions, err := c.auth.ActiveSessions(r.Context(), claims.UserID)
	if err != nil {
		c.respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SessionsResponse{Sessions: sessions})
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", nil,
		)
		return
	}

	identity, err := c.auth.Me(r.Context(), claims)
	if err != nil {
		c.respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MeResponse{User: *identity})
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

func clientMeta(r *http.Request) services.ClientMeta {
	return services.ClientMeta{
		IPAddress: utils.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// authenticatedToken re-extracts the bearer token alongside the identity the
// middleware attached, so logout flows can revoke the exact credential used.
func (c *AuthController) authenticatedToken(w http.ResponseWriter, r *http.Request) (*services.AccessClaims, string, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", nil,
		)
		return nil, "", false
	}
	token, err := middleware.AccessTokenFromRequest(r)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
		)
		return nil, "", false
	}
	return claims, token, true
}

// respondAuthError maps service-level failures to their HTTP shape.
func (c *AuthController) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrRateLimitExceeded):
		// Remaining time until the offending window resets; the full window
		// is only a fallback when no reset time accompanied the denial.
		retryAfter := int(c.cfg.RateLimitWindow.Seconds())
		var rlErr *utils.RateLimitError
		if errors.As(err, &rlErr) {
			if remaining := int(time.Until(rlErr.ResetAt).Seconds()); remaining > 0 {
				retryAfter = remaining
			}
		}
		utils.RespondErrorWithCode(
			w, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded,
			"Too many requests. Please try again later.",
			map[string]int{"retryAfterSeconds": retryAfter},
		)
	case errors.Is(err, utils.ErrUserNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "No account found for that phone number", nil,
		)
	case errors.Is(err, utils.ErrOTPNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeOTPExpired, "OTP expired or not requested", nil,
		)
	case errors.Is(err, utils.ErrOTPMaxAttempts):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeOTPMaxAttempts, "Too many incorrect attempts; request a new OTP", nil,
		)
	case errors.Is(err, utils.ErrOTPInvalidCode):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeOTPInvalid, "Incorrect OTP", nil,
		)
	case errors.Is(err, utils.ErrInvalidRefreshToken):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials, "Invalid or expired refresh token", nil,
		)
	case errors.Is(err, utils.ErrSessionNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Session no longer active", nil,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Something went wrong", nil, err,
		)
	}
}
