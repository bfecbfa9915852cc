package models

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one access/refresh token pair issued to a user. Only the
// SHA-256 hashes of the tokens are stored; hashes are unique across all
// sessions.
type Session struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	AccessTokenHash  string    `json:"-"`
	RefreshTokenHash string    `json:"-"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	LastActivityAt   time.Time `json:"last_activity_at"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
