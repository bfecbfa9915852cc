package models

import "time"

// BlacklistedToken represents a revoked-but-not-yet-expired access token.
// The entry's expiry mirrors the token's own natural expiry so it can be
// pruned safely once the signature would no longer verify anyway.
type BlacklistedToken struct {
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
