package core

import (
	"crypto/sha256"
	"encoding/hex"
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

// TableHash fingerprints the exact table state an artifact was computed from.
type TableHash Hash

// NewTableHash creates a table fingerprint from serialized column data
func NewTableHash(data []byte) TableHash { return TableHash(NewHash(data)) }

// String conversion
func (h TableHash) String() string { return Hash(h).String() }
