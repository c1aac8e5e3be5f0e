package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// Seeds are the provably-fair inputs to a deal.
type Seeds struct {
	Server string `json:"server"` // ASCII; do NOT hex-decode
	Client string `json:"client"`
}

// ServerHash returns the hex SHA-256 of the server seed, safe to publish before the reveal.
func (s Seeds) ServerHash() string {
	if s.Server == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.Server))
	return hex.EncodeToString(sum[:])
}
