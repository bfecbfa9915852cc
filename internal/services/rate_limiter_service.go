package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/repositories"
	"github.com/ienerzy/auth-service/internal/utils"
)

// Action classes with independent counters per identifier.
const (
	ActionLogin = "login"
	ActionOTP   = "otp"
)

// RateLimitResult reports a denial with the time at which the window resets.
type RateLimitResult struct {
	Allowed bool
	ResetAt time.Time
}

// RateLimiterService enforces per-(identifier, action) sliding-window
// limits. The identifier is a phone number for authentication flows and the
// caller's IP otherwise.
type RateLimiterService interface {
	// Check records an attempt and returns a *utils.RateLimitError carrying
	// the window's reset time when the limit is exceeded. When the counter
	// storage is unreachable the
	// check fails open (configurable): an infrastructure fault must not
	// block all traffic for a non-critical control.
	Check(ctx context.Context, identifier, action string) (*RateLimitResult, error)
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

func (s *rateLimiterService) Check(ctx context.Context, identifier, action string) (*RateLimitResult, error) {
	limit := s.limitFor(action)
	key := fmt.Sprintf("%s:%s", action, identifier)

	allowed, resetAt, err := s.repo.Hit(ctx, key, limit, s.cfg.RateLimitWindow)
	if err != nil {
		if s.cfg.RateLimitFailOpen {
			utils.Logger.WithError(err).Warnf("rate limit storage unreachable; failing open (key: %s)", key)
			return &RateLimitResult{Allowed: true}, nil
		}
		return nil, err
	}

	if !allowed {
		utils.Logger.Warnf("Rate limit exceeded (key: %s)", key)
		return &RateLimitResult{Allowed: false, ResetAt: resetAt}, &utils.RateLimitError{ResetAt: resetAt}
	}

	return &RateLimitResult{Allowed: true, ResetAt: resetAt}, nil
}

func (s *rateLimiterService) limitFor(action string) int {
	switch action {
	case ActionOTP:
		return s.cfg.OTPLimitPerWindow
	default:
		return s.cfg.LoginLimitPerWindow
	}
}
