package digest

// Package digest computes the canonical hash of a genomic sequence: SHA-256
// over the UTF-8 bytes of the raw uppercased sequence, rendered as 64
// lowercase hex characters. The hash is always taken over the raw sequence,
// never over its packed representation.

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexLen is the length of a canonical digest string.
const HexLen = 64

// Sequence returns the canonical digest of seq.
func Sequence(seq string) string {
	sum := sha256.Sum256([]byte(seq))
	return hex.EncodeToString(sum[:])
}
