package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

const tokenBytes = 32

var tokenPattern = regexp.MustCompile("^[0-9a-f]{64}$")

// NewToken mints an opaque bearer credential, generated once per login
// and independent of the OAuth access token.
func NewToken() (string, error) {
	buffer := make([]byte, tokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// Hash produces the integrity digest stored alongside cookie-based
// sessions as session_hash.
func Hash(data string) string {
	digest := sha256.Sum256([]byte(data))
	return hex.EncodeToString(digest[:])
}
