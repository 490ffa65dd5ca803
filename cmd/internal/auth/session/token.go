package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// newOpaqueToken generates a random session token.
// The plain token goes to the client exactly once; only the hash is persisted.
func newOpaqueToken(nBytes int) (plain string, hashHex string, err error) {
	if nBytes <= 0 {
		nBytes = 32
	}

	b := make([]byte, nBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}

	// URL-safe, no padding.
	plain = base64.RawURLEncoding.EncodeToString(b)

	return plain, hashTokenHex(plain), nil
}

// hashTokenHex returns the SHA-256 of the plain token as 64 hex chars.
func hashTokenHex(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
