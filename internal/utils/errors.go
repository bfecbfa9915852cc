package utils

import (
	"errors"
	"time"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrOTPNotFound    = errors.New("otp_not_found")
	ErrOTPMaxAttempts = errors.New("otp_max_attempts")
	ErrOTPInvalidCode = errors.New("otp_invalid_code")

	ErrSessionNotFound     = errors.New("session_not_found")
	ErrTokenBlacklisted    = errors.New("token_blacklisted")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")

	ErrUserNotFound = errors.New("user_not_found")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// For external service failures (e.g., Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// RateLimitError reports a denial together with the time at which the
// offending counter's window resets, so callers can surface a precise
// retry-after. errors.Is(err, ErrRateLimitExceeded) holds for it.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return ErrRateLimitExceeded.Error()
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimitExceeded
}
