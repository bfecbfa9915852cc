package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/dtos"
	"github.com/ienerzy/auth-service/internal/middleware"
	"github.com/ienerzy/auth-service/internal/models"
	"github.com/ienerzy/auth-service/internal/services"
	"github.com/ienerzy/auth-service/internal/utils"
)

// --- mock auth service ---

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) RequestOTP(ctx context.Context, phone, userType string) (*services.OTPRequestResult, error) {
	args := m.Called(ctx, phone, userType)
	if r, _ := args.Get(0).(*services.OTPRequestResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) VerifyOTP(ctx context.Context, phone, code string, client services.ClientMeta) (*services.LoginResult, error) {
	args := m.Called(ctx, phone, code, client)
	if r, _ := args.Get(0).(*services.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string, client services.ClientMeta) (string, string, error) {
	args := m.Called(ctx, refreshToken, client)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *mockAuthService) Logout(ctx context.Context, accessToken string, claims *services.AccessClaims) error {
	return m.Called(ctx, accessToken, claims).Error(0)
}
func (m *mockAuthService) LogoutAll(ctx context.Context, accessToken string, claims *services.AccessClaims) error {
	return m.Called(ctx, accessToken, claims).Error(0)
}
func (m *mockAuthService) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).([]models.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) Me(ctx context.Context, claims *services.AccessClaims) (*models.Identity, error) {
	args := m.Called(ctx, claims)
	if id, _ := args.Get(0).(*models.Identity); id != nil {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newController(auth services.AuthService) *AuthController {
	return NewAuthController(auth, &config.Config{
		OTPExpiry:       5 * time.Minute,
		RateLimitWindow: time.Minute,
	})
}

func postJSON(handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// --- Login ---

func TestLogin_SendsOTP(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("RequestOTP", mock.Anything, "9999999999", "").
		Return(&services.OTPRequestResult{Phone: "9999999999", ExpiresIn: 5 * time.Minute}, nil)

	rec := postJSON(ctrl.Login, "/auth/login", dtos.LoginRequest{Phone: "9999999999"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 300, resp.ExpiresIn)
	assert.Empty(t, resp.OTP)
}

func TestLogin_FallbackCodeReturnedInline(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("RequestOTP", mock.Anything, "9999999999", "").
		Return(&services.OTPRequestResult{Phone: "9999999999", ExpiresIn: 5 * time.Minute, FallbackCode: "123456"}, nil)

	rec := postJSON(ctrl.Login, "/auth/login", dtos.LoginRequest{Phone: "9999999999"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "123456", resp.OTP)
}

func TestLogin_RejectsBadPhone(t *testing.T) {
	ctrl := newController(new(mockAuthService))

	for _, phone := range []string{"", "12345", "abcdefghij", "99999999990"} {
		rec := postJSON(ctrl.Login, "/auth/login", dtos.LoginRequest{Phone: phone})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "phone %q", phone)
	}
}

// The retry hint must reflect the denied window's actual reset time, not
// the full window length.
func TestLogin_RateLimitedIs429WithRetryHint(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("RequestOTP", mock.Anything, "9999999999", "").
		Return(nil, &utils.RateLimitError{ResetAt: time.Now().Add(5 * time.Second)})

	rec := postJSON(ctrl.Login, "/auth/login", dtos.LoginRequest{Phone: "9999999999"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, utils.ErrCodeRateLimitExceeded, body.Code)

	details, ok := body.Details.(map[string]any)
	require.True(t, ok)
	retryAfter, ok := details["retryAfterSeconds"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 5, retryAfter, 2)
}

// A bare sentinel (no reset time attached) still gets a usable hint: the
// configured window length.
func TestLogin_RateLimitedWithoutResetFallsBackToWindow(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("RequestOTP", mock.Anything, "9999999999", "").
		Return(nil, utils.ErrRateLimitExceeded)

	rec := postJSON(ctrl.Login, "/auth/login", dtos.LoginRequest{Phone: "9999999999"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	details, ok := decodeError(t, rec).Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(60), details["retryAfterSeconds"])
}

func TestLogin_UnknownPhoneIs404(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("RequestOTP", mock.Anything, "1234567890", "").
		Return(nil, utils.ErrUserNotFound)

	rec := postJSON(ctrl.Login, "/auth/login", dtos.LoginRequest{Phone: "1234567890"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- VerifyOTP ---

func TestVerifyOTP_ReturnsTokenPair(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)
	user := models.Identity{ID: uuid.New(), Name: "Ravi Kumar", Phone: "9999999999", Role: models.RoleAdmin}

	auth.On("VerifyOTP", mock.Anything, "9999999999", "123456", mock.Anything).
		Return(&services.LoginResult{AccessToken: "access-token", RefreshToken: "refresh-token", User: user}, nil)

	rec := postJSON(ctrl.VerifyOTP, "/auth/verify-otp", dtos.VerifyOTPRequest{Phone: "9999999999", OTP: "123456"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.VerifyOTPResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "access-token", resp.Token)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
}

func TestVerifyOTP_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		svcErr   error
		status   int
		codeWant string
	}{
		{"expired", utils.ErrOTPNotFound, http.StatusBadRequest, utils.ErrCodeOTPExpired},
		{"exhausted", utils.ErrOTPMaxAttempts, http.StatusBadRequest, utils.ErrCodeOTPMaxAttempts},
		{"wrong code", utils.ErrOTPInvalidCode, http.StatusBadRequest, utils.ErrCodeOTPInvalid},
		{"rate limited", utils.ErrRateLimitExceeded, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := new(mockAuthService)
			ctrl := newController(auth)
			auth.On("VerifyOTP", mock.Anything, "9999999999", "123456", mock.Anything).
				Return(nil, tc.svcErr)

			rec := postJSON(ctrl.VerifyOTP, "/auth/verify-otp", dtos.VerifyOTPRequest{Phone: "9999999999", OTP: "123456"})
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.codeWant, decodeError(t, rec).Code)
		})
	}
}

func TestVerifyOTP_RejectsShortCode(t *testing.T) {
	ctrl := newController(new(mockAuthService))

	rec := postJSON(ctrl.VerifyOTP, "/auth/verify-otp", dtos.VerifyOTPRequest{Phone: "9999999999", OTP: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Refresh ---

func TestRefresh_ReturnsRotatedPair(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("Refresh", mock.Anything, "refresh-token", mock.Anything).
		Return("new-access", "new-refresh", nil)

	rec := postJSON(ctrl.Refresh, "/auth/refresh", dtos.RefreshRequest{RefreshToken: "refresh-token"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.RefreshResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "new-access", resp.Token)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
}

func TestRefresh_InvalidTokenIs401(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)

	auth.On("Refresh", mock.Anything, "stale", mock.Anything).
		Return("", "", utils.ErrInvalidRefreshToken)

	rec := postJSON(ctrl.Refresh, "/auth/refresh", dtos.RefreshRequest{RefreshToken: "stale"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.ErrCodeInvalidCredentials, decodeError(t, rec).Code)
}

// --- Logout ---

func withClaims(req *http.Request, claims *services.AccessClaims) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyClaims, claims))
}

func TestLogout_RevokesPresentedToken(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)
	claims := &services.AccessClaims{UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}

	auth.On("Logout", mock.Anything, "access-token", claims).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer access-token")
	req = withClaims(req, claims)
	rec := httptest.NewRecorder()

	ctrl.Logout(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	auth.AssertExpectations(t)
}

func TestLogout_WithoutClaimsIs401(t *testing.T) {
	ctrl := newController(new(mockAuthService))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()

	ctrl.Logout(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Sessions / Me ---

func TestSessions_ListsActiveSessions(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)
	claims := &services.AccessClaims{UserID: uuid.New()}

	auth.On("ActiveSessions", mock.Anything, claims.UserID).Return([]models.Session{
		{ID: uuid.New(), UserID: claims.UserID, IPAddress: "10.0.0.1"},
	}, nil)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/auth/sessions", nil), claims)
	rec := httptest.NewRecorder()

	ctrl.Sessions(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.SessionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "10.0.0.1", resp.Sessions[0].IPAddress)
}

func TestMe_ReturnsIdentity(t *testing.T) {
	auth := new(mockAuthService)
	ctrl := newController(auth)
	claims := &services.AccessClaims{UserID: uuid.New()}
	identity := &models.Identity{ID: claims.UserID, Name: "Ravi Kumar", Role: models.RoleAdmin}

	auth.On("Me", mock.Anything, claims).Return(identity, nil)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/auth/me", nil), claims)
	rec := httptest.NewRecorder()

	ctrl.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.MeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, identity.ID, resp.User.ID)
}
