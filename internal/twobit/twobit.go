package twobit

// Package twobit packs DNA sequences at two bits per base for compact
// on-chain storage: A=00, C=01, G=10, T=11. Any other symbol (including the
// ambiguity code N) collapses to 00, so the encoding is a one-way
// fingerprint, not a lossless codec.

import (
	"encoding/hex"
	"fmt"
)

const (
	BaseA = 'A'
	BaseC = 'C'
	BaseG = 'G'
	BaseT = 'T'
	BaseN = 'N'
)

// Payload is the result of packing one sequence. Unknown counts the symbols
// outside the {A,C,G,T,N} alphabet that were coerced to the A/N code; callers
// decide whether that is a warning or an error. N itself is a legitimate
// ambiguity code and is not counted.
type Payload struct {
	Hex       string
	SizeBytes int
	Unknown   int
}

// UnknownSymbolError reports the first coerced symbol when strict encoding
// is requested.
type UnknownSymbolError struct {
	Symbol byte
	Offset int
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("twobit: unknown symbol %q at offset %d", e.Symbol, e.Offset)
}

func code(b byte) (uint8, bool) {
	switch b {
	case BaseA:
		return 0b00, true
	case BaseC:
		return 0b01, true
	case BaseG:
		return 0b10, true
	case BaseT:
		return 0b11, true
	}
	return 0b00, false
}

// Encode packs seq into the 2-bit representation. The bitstream is
// right-padded with zero bits to a byte boundary and rendered as lowercase
// hex, two digits per byte. Pure: identical input always yields an identical
// payload.
func Encode(seq string) Payload {
	n := len(seq)
	buf := make([]byte, (n+3)/4)
	unknown := 0
	for i := 0; i < n; i++ {
		c, ok := code(seq[i])
		if !ok && seq[i] != BaseN {
			unknown++
		}
		// four bases per byte, first base in the high bits
		buf[i/4] |= c << uint(6-2*(i%4))
	}
	return Payload{
		Hex:       hex.EncodeToString(buf),
		SizeBytes: len(buf),
		Unknown:   unknown,
	}
}

// EncodeStrict is Encode but fails on the first symbol outside {A,C,G,T,N}
// instead of coercing it.
func EncodeStrict(seq string) (Payload, error) {
	for i := 0; i < len(seq); i++ {
		if _, ok := code(seq[i]); !ok && seq[i] != BaseN {
			return Payload{}, &UnknownSymbolError{Symbol: seq[i], Offset: i}
		}
	}
	return Encode(seq), nil
}
