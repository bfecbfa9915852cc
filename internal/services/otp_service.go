package services

import (
	"context"
	"time"

	"github.com/ienerzy/auth-service/internal/models"
	"github.com/ienerzy/auth-service/internal/repositories"
	"github.com/ienerzy/auth-service/internal/utils"
)

// ---------------------------------------------------------------------
// OTPService interface
// ---------------------------------------------------------------------

// OTPService owns the one-code-per-phone lifecycle. Storing a new code
// invalidates the prior one; verification consumes the record.
type OTPService interface {
	// Store upserts the code for the phone, resetting the attempt counter
	// and expiry.
	Store(ctx context.Context, phone, code string, identity models.Identity) error

	// Verify checks the code for the phone. Failure modes:
	//   - utils.ErrOTPNotFound     no live (non-expired) record
	//   - utils.ErrOTPMaxAttempts  attempt budget already spent (record deleted)
	//   - utils.ErrOTPInvalidCode  code mismatch (attempt counter incremented)
	// On match the record is deleted and the stored identity returned.
	Verify(ctx context.Context, phone, code string) (*models.Identity, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type otpService struct {
	repo        repositories.OTPRepository
	expiry      time.Duration
	maxAttempts int
}

func NewOTPService(repo repositories.OTPRepository, expiry time.Duration, maxAttempts int) OTPService {
	return &otpService{
		repo:        repo,
		expiry:      expiry,
		maxAttempts: maxAttempts,
	}
}

func (s *otpService) Store(ctx context.Context, phone, code string, identity models.Identity) error {
	otp := &models.OTPCode{
		Phone:      phone,
		Code:       code,
		UserID:     identity.ID,
		Name:       identity.Name,
		Role:       identity.Role,
		IsConsumer: identity.IsConsumer,
		ExpiresAt:  time.Now().Add(s.expiry),
	}
	return s.repo.Upsert(ctx, otp)
}

func (s *otpService) Verify(ctx context.Context, phone, code string) (*models.Identity, error) {
	rec, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.IsExpired() {
		return nil, utils.ErrOTPNotFound
	}

	// Attempt budget is checked before the code so that the correct code
	// cannot land after three wrong guesses.
	if rec.AttemptCount >= s.maxAttempts {
		if delErr := s.repo.Delete(ctx, phone); delErr != nil {
			utils.Logger.WithError(delErr).Error("failed to delete exhausted OTP record")
		}
		return nil, utils.ErrOTPMaxAttempts
	}

	if rec.Code != code {
		if incErr := s.repo.IncrementAttempts(ctx, phone); incErr != nil {
			utils.Logger.WithError(incErr).Error("failed to increment OTP attempts")
		}
		return nil, utils.ErrOTPInvalidCode
	}

	if err := s.repo.Delete(ctx, phone); err != nil {
		return nil, err
	}

	identity := rec.Identity()
	return &identity, nil
}
