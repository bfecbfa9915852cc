package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPCode is a one-time login code for a phone number. At most one live
// record exists per phone; storing a new code replaces the prior one.
type OTPCode struct {
	Phone        string    `json:"phone"`
	Code         string    `json:"code"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsConsumer   bool      `json:"is_consumer"`
	AttemptCount int       `json:"attempt_count"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (o *OTPCode) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// Identity reconstructs the snapshot stored alongside the code.
func (o *OTPCode) Identity() Identity {
	return Identity{
		ID:         o.UserID,
		Name:       o.Name,
		Phone:      o.Phone,
		Role:       o.Role,
		IsConsumer: o.IsConsumer,
	}
}
