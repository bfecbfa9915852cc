package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgconn"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/repositories"
	"github.com/ienerzy/auth-service/internal/utils"
)

const cleanupRetryDelay = 3 * time.Second

// CleanupService sweeps expired OTP codes, sessions, blacklist entries and
// rate limit counters each night. Expiry is also checked at every read, so
// the sweep is housekeeping rather than a correctness requirement.
type CleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type cleanupService struct {
	otpRepo       repositories.OTPRepository
	sessionRepo   repositories.SessionRepository
	blacklistRepo repositories.BlacklistRepository
	rateLimitRepo repositories.RateLimitRepository
	cfg           *config.Config
}

func NewCleanupService(
	otpRepo repositories.OTPRepository,
	sessionRepo repositories.SessionRepository,
	blacklistRepo repositories.BlacklistRepository,
	rateLimitRepo repositories.RateLimitRepository,
	cfg *config.Config,
) CleanupService {
	return &cleanupService{
		otpRepo:       otpRepo,
		sessionRepo:   sessionRepo,
		blacklistRepo: blacklistRepo,
		rateLimitRepo: rateLimitRepo,
		cfg:           cfg,
	}
}

// runWithRetry executes op(ctx) and, if it returns a transient network
// error (EOF, pgconn safe-to-retry, or the common closed-connection
// message), waits a moment then retries once.
func (s *cleanupService) runWithRetry(
	ctx context.Context,
	op func(context.Context) error,
) error {
	if err := op(ctx); err != nil {
		if errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
			strings.Contains(err.Error(), "connection was closed") {
			utils.Logger.WithError(err).Warn("cleanup hit transient DB error; retrying once")
			time.Sleep(cleanupRetryDelay)
			return op(ctx)
		}
		return err
	}
	return nil
}

func (s *cleanupService) CleanupDaily(ctx context.Context) error {
	logger := utils.Logger

	if err := s.runWithRetry(ctx, s.otpRepo.CleanupExpired); err != nil {
		logger.WithError(err).Error("Failed to cleanup expired otp_codes")
		return err
	}

	if err := s.runWithRetry(ctx, s.sessionRepo.CleanupExpired); err != nil {
		logger.WithError(err).Error("Failed to cleanup expired sessions")
		return err
	}

	if err := s.runWithRetry(ctx, s.blacklistRepo.CleanupExpired); err != nil {
		logger.WithError(err).Error("Failed to cleanup expired blacklisted_tokens")
		return err
	}

	// Counters are retained one full window past their burst so a denial's
	// reset time can always be computed before the row disappears.
	retention := 2 * s.cfg.RateLimitWindow
	if err := s.runWithRetry(ctx, func(ctx context.Context) error {
		return s.rateLimitRepo.CleanupExpired(ctx, retention)
	}); err != nil {
		logger.WithError(err).Error("Failed to cleanup expired rate_limit_attempts")
		return err
	}

	logger.Info("Daily auth cleanup completed successfully.")
	return nil
}
