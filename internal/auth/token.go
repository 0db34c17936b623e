package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// GenerateSecureToken creates an opaque session token.
// Returns a token in format: sess_<base64-encoded-32-random-bytes>
func GenerateSecureToken() (string, error) {
	bytes := make([]byte, 32) // 256 bits of entropy
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "sess_" + base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashToken returns SHA256 hash of the token.
// The session store is keyed by the hash, never the token itself.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
