package twobit

import (
	"errors"
	"testing"
)

func TestEncodeACGT(t *testing.T) {
	p := Encode("ACGT")
	if p.Hex != "1b" {
		t.Fatalf("expected hex 1b, got %q", p.Hex)
	}
	if p.SizeBytes != 1 {
		t.Fatalf("expected 1 byte, got %d", p.SizeBytes)
	}
	if p.Unknown != 0 {
		t.Fatalf("expected no unknown symbols, got %d", p.Unknown)
	}
}

func TestEncodePadding(t *testing.T) {
	// five bases need 10 bits, padded to 16: 00 01 10 11 | 11 000000
	p := Encode("ACGTT")
	if p.Hex != "1bc0" {
		t.Fatalf("expected hex 1bc0, got %q", p.Hex)
	}
	if p.SizeBytes != 2 {
		t.Fatalf("expected 2 bytes, got %d", p.SizeBytes)
	}
}

func TestEncodeCoercesNAndUnknown(t *testing.T) {
	// N maps to 00 like A and is not counted as unknown
	p := Encode("NNNN")
	if p.Hex != "00" {
		t.Fatalf("expected hex 00, got %q", p.Hex)
	}
	if p.Unknown != 0 {
		t.Fatalf("N must not count as unknown, got %d", p.Unknown)
	}

	p = Encode("AXGT")
	if p.Unknown != 1 {
		t.Fatalf("expected 1 unknown symbol, got %d", p.Unknown)
	}
	if p.Hex != Encode("AAGT").Hex {
		t.Fatalf("unknown symbol must encode like A: %q vs %q", p.Hex, Encode("AAGT").Hex)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	seq := "ACGTNACGTNACGTN"
	a, b := Encode(seq), Encode(seq)
	if a != b {
		t.Fatalf("encode not deterministic: %+v vs %+v", a, b)
	}
}

func TestEncodeEmpty(t *testing.T) {
	p := Encode("")
	if p.Hex != "" || p.SizeBytes != 0 {
		t.Fatalf("unexpected payload for empty sequence: %+v", p)
	}
}

func TestEncodeStrict(t *testing.T) {
	if _, err := EncodeStrict("ACGTN"); err != nil {
		t.Fatalf("N is part of the alphabet, got %v", err)
	}
	_, err := EncodeStrict("ACXGT")
	var use *UnknownSymbolError
	if !errors.As(err, &use) {
		t.Fatalf("expected UnknownSymbolError, got %v", err)
	}
	if use.Symbol != 'X' || use.Offset != 2 {
		t.Fatalf("unexpected error detail: %+v", use)
	}
}
