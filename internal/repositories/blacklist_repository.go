package repositories

import (
	"context"
	"time"
)

type BlacklistRepository interface {
	// Add records a revoked token hash until its natural expiry. A duplicate
	// insert is a no-op.
	Add(ctx context.Context, tokenHash string, expiresAt time.Time) error
	Contains(ctx context.Context, tokenHash string) (bool, error)
	CleanupExpired(ctx context.Context) error
}

type blacklistRepository struct {
	db DB
}

func NewBlacklistRepository(db DB) BlacklistRepository {
	return &blacklistRepository{db: db}
}

func (r *blacklistRepository) Add(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	query := `
        INSERT INTO blacklisted_tokens (token_hash, expires_at, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (token_hash) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, tokenHash, expiresAt)
	return err
}

func (r *blacklistRepository) Contains(ctx context.Context, tokenHash string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM blacklisted_tokens
            WHERE token_hash = $1 AND expires_at > NOW()
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&exists)
	return exists, err
}

func (r *blacklistRepository) CleanupExpired(ctx context.Context) error {
	query := `DELETE FROM blacklisted_tokens WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}
