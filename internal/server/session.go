package server

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateClientID creates a unique id for a new connection.
func GenerateClientID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
