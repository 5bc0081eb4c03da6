package handler

import (
	"crypto/rand"
	"encoding/base64"
)

// generateSecret returns a new random bearer credential (api-key or
// admin-token plaintext) and the short prefix stored alongside its hash
// for display in listings, since the hash itself can't be reversed.
func generateSecret() (plaintext, prefix string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plaintext = base64.RawURLEncoding.EncodeToString(buf)
	prefix = plaintext[:8]
	return plaintext, prefix, nil
}
