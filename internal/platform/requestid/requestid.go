// Package requestid mints opaque correlation ids for incoming requests.
package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New returns a random 128-bit id as 32 lowercase hex characters.
func New() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
