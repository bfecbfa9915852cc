package utils

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken computes the SHA-256 hash of a raw bearer token and encodes it
// Base64-URL. Only hashes are ever persisted, so a database read alone
// cannot be replayed as a credential.
func HashToken(raw string) string {
	hasher := sha256.New()
	hasher.Write([]byte(raw))
	return base64.URLEncoding.EncodeToString(hasher.Sum(nil))
}
