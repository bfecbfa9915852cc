package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/ienerzy/auth-service/internal/models"
)

type OTPRepository interface {
	// Upsert stores a fresh code for the phone, replacing any prior one and
	// resetting the attempt counter. Two concurrent requests for the same
	// phone cannot interleave; the later write wins.
	Upsert(ctx context.Context, otp *models.OTPCode) error

	// GetByPhone fetches the live record for a phone. Returns nil if none.
	// Expiry is NOT filtered here; the service checks it so that an expired
	// row and a missing row surface the same way.
	GetByPhone(ctx context.Context, phone string) (*models.OTPCode, error)

	Delete(ctx context.Context, phone string) error
	IncrementAttempts(ctx context.Context, phone string) error
	CleanupExpired(ctx context.Context) error
}

type otpRepository struct {
	db DB
}

func NewOTPRepository(db DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Upsert(ctx context.Context, otp *models.OTPCode) error {
	query := `
        INSERT INTO otp_codes (phone, code, user_id, name, role, is_consumer, attempt_count, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), $7)
        ON CONFLICT (phone) DO UPDATE
        SET code = EXCLUDED.code,
            user_id = EXCLUDED.user_id,
            name = EXCLUDED.name,
            role = EXCLUDED.role,
            is_consumer = EXCLUDED.is_consumer,
            attempt_count = 0,
            created_at = NOW(),
            expires_at = EXCLUDED.expires_at
    `
	_, err := r.db.Exec(ctx, query,
		otp.Phone,
		otp.Code,
		otp.UserID,
		otp.Name,
		otp.Role,
		otp.IsConsumer,
		otp.ExpiresAt,
	)
	return err
}

func (r *otpRepository) GetByPhone(ctx context.Context, phone string) (*models.OTPCode, error) {
	query := `
        SELECT phone, code, user_id, name, role, is_consumer, attempt_count, created_at, expires_at
        FROM otp_codes
        WHERE phone = $1
    `
	row := r.db.QueryRow(ctx, query, phone)

	var otp models.OTPCode
	err := row.Scan(
		&otp.Phone,
		&otp.Code,
		&otp.UserID,
		&otp.Name,
		&otp.Role,
		&otp.IsConsumer,
		&otp.AttemptCount,
		&otp.CreatedAt,
		&otp.ExpiresAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) Delete(ctx context.Context, phone string) error {
	query := `DELETE FROM otp_codes WHERE phone = $1`
	_, err := r.db.Exec(ctx, query, phone)
	return err
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, phone string) error {
	query := `UPDATE otp_codes SET attempt_count = attempt_count + 1 WHERE phone = $1`
	_, err := r.db.Exec(ctx, query, phone)
	return err
}

func (r *otpRepository) CleanupExpired(ctx context.Context) error {
	query := `DELETE FROM otp_codes WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}
