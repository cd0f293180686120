package merkle

// Package merkle folds an ordered list of hex digests into a single root.
// Pairs are combined by concatenating the two hex strings as text and
// hashing the result with SHA-256, matching how the on-chain verifier
// recombines them. Input order is significant and is never changed here.

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmpty is returned when the input list has no digests.
var ErrEmpty = errors.New("merkle: empty digest list")

func combine(a, b string) string {
	sum := sha256.Sum256([]byte(a + b))
	return hex.EncodeToString(sum[:])
}

// Root reduces hashes level by level until one digest remains. A single
// element is returned unchanged; a level of odd length duplicates its last
// element before pairing. The reduction is iterative so record count never
// translates into call depth.
func Root(hashes []string) (string, error) {
	if len(hashes) == 0 {
		return "", ErrEmpty
	}
	level := make([]string, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, combine(level[i], level[i+1]))
		}
		level = next
	}
	return level[0], nil
}
