package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ienerzy/auth-service/internal/models"
	"github.com/ienerzy/auth-service/internal/repositories"
	"github.com/ienerzy/auth-service/internal/utils"
)

// ClientMeta is the optional request metadata recorded on a session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// ---------------------------------------------------------------------
// SessionService interface
// ---------------------------------------------------------------------

type SessionService interface {
	// Create persists SHA-256 hashes of both tokens. Raw tokens never touch
	// the database.
	Create(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string, client ClientMeta) (*models.Session, error)

	// Validate resolves the access token to a live session and touches its
	// last-activity time. Returns utils.ErrSessionNotFound when no live
	// session matches.
	Validate(ctx context.Context, accessToken string) (*models.Session, error)

	// Refresh resolves the refresh token to a live session. The caller mints
	// new tokens and calls Update.
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)

	// Update replaces both hashes after a refresh cycle.
	Update(ctx context.Context, sessionID uuid.UUID, newAccessToken, newRefreshToken string) error

	// Invalidate deletes the session matching the access token (logout).
	Invalidate(ctx context.Context, accessToken string) error

	// RevokeAll deletes every session owned by the user.
	RevokeAll(ctx context.Context, userID uuid.UUID) error

	// ListActive returns the user's non-expired sessions for display. Token
	// hashes are stripped before return.
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type sessionService struct {
	repo          repositories.SessionRepository
	refreshExpiry time.Duration
}

func NewSessionService(repo repositories.SessionRepository, refreshExpiry time.Duration) SessionService {
	return &sessionService{
		repo:          repo,
		refreshExpiry: refreshExpiry,
	}
}

func (s *sessionService) Create(
	ctx context.Context,
	userID uuid.UUID,
	accessToken, refreshToken string,
	client ClientMeta,
) (*models.Session, error) {
	session := &models.Session{
		ID:               uuid.New(),
		UserID:           userID,
		AccessTokenHash:  utils.HashToken(accessToken),
		RefreshTokenHash: utils.HashToken(refreshToken),
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
		ExpiresAt:        time.Now().Add(s.refreshExpiry),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		// Unique violations on token hashes bubble up here: a hash collision
		// rejects the session rather than silently sharing credentials.
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Validate(ctx context.Context, accessToken string) (*models.Session, error) {
	session, err := s.repo.GetByAccessHash(ctx, utils.HashToken(accessToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, utils.ErrSessionNotFound
	}

	// Touching last-activity after the lookup races a concurrent logout.
	// The validate call already returned, so this is benign staleness.
	if touchErr := s.repo.TouchActivity(ctx, session.ID); touchErr != nil {
		utils.Logger.WithError(touchErr).Warn("failed to touch session last-activity")
	}
	return session, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	session, err := s.repo.GetByRefreshHash(ctx, utils.HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, utils.ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) Update(ctx context.Context, sessionID uuid.UUID, newAccessToken, newRefreshToken string) error {
	return s.repo.UpdateTokens(
		ctx,
		sessionID,
		utils.HashToken(newAccessToken),
		utils.HashToken(newRefreshToken),
		time.Now().Add(s.refreshExpiry),
	)
}

func (s *sessionService) Invalidate(ctx context.Context, accessToken string) error {
	return s.repo.DeleteByAccessHash(ctx, utils.HashToken(accessToken))
}

func (s *sessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteAllByUserID(ctx, userID)
}

func (s *sessionService) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.repo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].AccessTokenHash = ""
		sessions[i].RefreshTokenHash = ""
	}
	return sessions, nil
}
