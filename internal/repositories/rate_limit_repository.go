package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

// RateLimitRepository provides an atomic way to record and check sliding
// window rate limit counters. The window is measured from the first attempt
// of the current burst; once it elapses the counter resets in place.
type RateLimitRepository interface {
	// Hit atomically records an attempt for the key and checks it against
	// the limit. Returns whether the attempt is allowed and, when denied,
	// the time at which the window resets.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Time, error)
	// CleanupExpired removes counters whose window has long elapsed.
	CleanupExpired(ctx context.Context, retention time.Duration) error
}

type rateLimitRepository struct {
	db DB
}

func NewRateLimitRepository(db DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

func (r *rateLimitRepository) Hit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (bool, time.Time, error) {
	query := `
        INSERT INTO rate_limit_attempts (key, attempt_count, first_attempt_at, last_attempt_at)
        VALUES ($1, 1, NOW(), NOW())
        ON CONFLICT (key) DO UPDATE
        SET attempt_count = CASE
            WHEN rate_limit_attempts.first_attempt_at + $2::interval < NOW() THEN 1
            ELSE rate_limit_attempts.attempt_count + 1
        END,
        first_attempt_at = CASE
            WHEN rate_limit_attempts.first_attempt_at + $2::interval < NOW() THEN NOW()
            ELSE rate_limit_attempts.first_attempt_at
        END,
        last_attempt_at = NOW()
        RETURNING attempt_count, first_attempt_at;
    `

	var (
		currentCount int
		firstAttempt time.Time
	)
	err := r.db.QueryRow(ctx, query, key, window).Scan(&currentCount, &firstAttempt)
	if err != nil && err != pgx.ErrNoRows {
		return false, time.Time{}, err
	}

	return currentCount <= limit, firstAttempt.Add(window), nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context, retention time.Duration) error {
	query := `DELETE FROM rate_limit_attempts WHERE first_attempt_at + $1::interval < NOW()`
	_, err := r.db.Exec(ctx, query, retention)
	return err
}
