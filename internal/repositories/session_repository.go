package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/ienerzy/auth-service/internal/models"
)

type SessionRepository interface {
	// Create inserts a new session row. A unique violation on either token
	// hash column is returned to the caller (collision = reject).
	Create(ctx context.Context, s *models.Session) error

	// GetByAccessHash / GetByRefreshHash fetch a non-expired session by the
	// hash of the presented token. Return nil when no live row matches.
	GetByAccessHash(ctx context.Context, accessHash string) (*models.Session, error)
	GetByRefreshHash(ctx context.Context, refreshHash string) (*models.Session, error)

	// UpdateTokens swaps both hashes after a refresh cycle and bumps
	// last_activity.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessHash, refreshHash string, expiresAt time.Time) error

	TouchActivity(ctx context.Context, id uuid.UUID) error
	DeleteByAccessHash(ctx context.Context, accessHash string) error
	DeleteAllByUserID(ctx context.Context, userID uuid.UUID) error
	ListActiveByUserID(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	CleanupExpired(ctx context.Context) error
}

type sessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, access_token_hash, refresh_token_hash, ip_address, user_agent, created_at, expires_at, last_activity_at`

func (r *sessionRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
        INSERT INTO sessions (id, user_id, access_token_hash, refresh_token_hash, ip_address, user_agent, created_at, expires_at, last_activity_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7, NOW())
    `
	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.AccessTokenHash,
		s.RefreshTokenHash,
		s.IPAddress,
		s.UserAgent,
		s.ExpiresAt,
	)
	return err
}

func (r *sessionRepository) getByHash(ctx context.Context, column, hash string) (*models.Session, error) {
	query := `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE ` + column + ` = $1 AND expires_at > NOW()
    `
	row := r.db.QueryRow(ctx, query, hash)

	var s models.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.AccessTokenHash,
		&s.RefreshTokenHash,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.LastActivityAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) GetByAccessHash(ctx context.Context, accessHash string) (*models.Session, error) {
	return r.getByHash(ctx, "access_token_hash", accessHash)
}

func (r *sessionRepository) GetByRefreshHash(ctx context.Context, refreshHash string) (*models.Session, error) {
	return r.getByHash(ctx, "refresh_token_hash", refreshHash)
}

func (r *sessionRepository) UpdateTokens(
	ctx context.Context,
	id uuid.UUID,
	accessHash, refreshHash string,
	expiresAt time.Time,
) error {
	query := `
        UPDATE sessions
        SET access_token_hash = $2,
            refresh_token_hash = $3,
            expires_at = $4,
            last_activity_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, id, accessHash, refreshHash, expiresAt)
	return err
}

func (r *sessionRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sessions SET last_activity_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *sessionRepository) DeleteByAccessHash(ctx context.Context, accessHash string) error {
	query := `DELETE FROM sessions WHERE access_token_hash = $1`
	_, err := r.db.Exec(ctx, query, accessHash)
	return err
}

func (r *sessionRepository) DeleteAllByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *sessionRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	query := `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE user_id = $1 AND expires_at > NOW()
        ORDER BY last_activity_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.AccessTokenHash,
			&s.RefreshTokenHash,
			&s.IPAddress,
			&s.UserAgent,
			&s.CreatedAt,
			&s.ExpiresAt,
			&s.LastActivityAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) CleanupExpired(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}
