package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ienerzy/auth-service/internal/repositories"
	"github.com/ienerzy/auth-service/internal/services"
	"github.com/ienerzy/auth-service/internal/utils"
)

type contextKey string

const ContextKeyClaims = contextKey("authClaims")

// ClaimsFromContext returns the authenticated identity attached by Auth,
// or nil when the request did not pass through it.
func ClaimsFromContext(ctx context.Context) *services.AccessClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*services.AccessClaims)
	return claims
}

// AccessTokenFromRequest extracts the raw bearer token. Exposed so logout
// handlers can blacklist the exact credential that authenticated them.
func AccessTokenFromRequest(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

// Auth walks each request through the token checks in order: bearer
// present, signature valid, not blacklisted, session live. An expired
// signature is reported as 401 token_expired so clients know to refresh or
// re-login instead of treating the token as simply wrong (403).
func Auth(
	tokens services.TokenService,
	blacklist repositories.BlacklistRepository,
	sessions services.SessionService,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := AccessTokenFromRequest(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			claims, parseErr := tokens.ParseAccessToken(tokenStr)
			if parseErr != nil {
				if errors.Is(parseErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired,
						"Token expired; refresh or log in again", nil, parseErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeUnauthorized, "Invalid token", nil, parseErr,
				)
				return
			}

			blacklisted, blErr := blacklist.Contains(r.Context(), utils.HashToken(tokenStr))
			if blErr != nil {
				// Fails open on storage faults; the session check still applies.
				utils.Logger.WithError(blErr).Warn("blacklist lookup failed; continuing")
			}
			if blacklisted {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Token has been revoked", nil,
					utils.ErrTokenBlacklisted,
				)
				return
			}

			if _, sessErr := sessions.Validate(r.Context(), tokenStr); sessErr != nil {
				if errors.Is(sessErr, utils.ErrSessionNotFound) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No active session for token", nil, sessErr,
					)
					return
				}
				// Fails open on storage faults, same as the blacklist check.
				utils.Logger.WithError(sessErr).Warn("session lookup failed; continuing")
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects with 403 when the authenticated identity's role is
// not in the allowed set. Must run after Auth.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", nil,
				)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient role", nil,
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
