package models

import "github.com/google/uuid"

// Role values carried in access tokens and checked by route middleware.
const (
	RoleConsumer   = "consumer"
	RoleAdmin      = "admin"
	RoleDealer     = "dealer"
	RoleTechnician = "technician"
)

// Identity is the snapshot of a user captured when an OTP is issued and
// carried through verification into the access token claims.
type Identity struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	IsConsumer bool      `json:"isConsumer"`
}
