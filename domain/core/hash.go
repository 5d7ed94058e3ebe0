package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ComputeCurveFingerprint produces a deterministic fingerprint for an estimated
// curve from its cohort name and the (time, survival) pairs of its points.
func ComputeCurveFingerprint(cohort string, times, survival []float64) Hash {
	var data strings.Builder
	data.WriteString(cohort)
	for i := range times {
		data.WriteString(fmt.Sprintf("|%.12g:%.12g", times[i], survival[i]))
	}
	return NewHash([]byte(data.String()))
}
