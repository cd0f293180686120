package fasta

// Package fasta contains minimal helpers to parse FASTA formatted data used
// by the project. It intentionally keeps parsing simple and conservative: a
// single header line introduced by '>' followed by sequence lines that are
// uppercased and concatenated.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoHeader is returned when sequence data appears before any '>' header
// line, or when the input contains no header at all.
var ErrNoHeader = errors.New("fasta: no header line")

// Record represents a single FASTA record (header and sequence). The
// sequence is uppercase with newlines and blank lines removed.
type Record struct {
	Header   string
	Sequence string
}

// Parse reads a single FASTA record from r. The leading '>' is stripped from
// the header; every subsequent non-blank line is uppercased and concatenated
// in file order. Inputs without a header line fail with ErrNoHeader rather
// than defaulting to an empty header.
func Parse(r io.Reader) (Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var rec Record
	sawHeader := false
	var sb strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if sawHeader {
				// only the first record is meaningful to the pipeline
				break
			}
			rec.Header = line[1:]
			sawHeader = true
			continue
		}
		if !sawHeader {
			return Record{}, ErrNoHeader
		}
		sb.WriteString(strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("fasta: read: %w", err)
	}
	if !sawHeader {
		return Record{}, ErrNoHeader
	}
	rec.Sequence = sb.String()
	return rec, nil
}

// ReadFile opens path and parses it as a single-record FASTA file. A missing
// file surfaces as an error satisfying errors.Is(err, os.ErrNotExist).
func ReadFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("fasta: open %s: %w", path, err)
	}
	defer f.Close()
	rec, err := Parse(f)
	if err != nil {
		return Record{}, fmt.Errorf("fasta: parse %s: %w", path, err)
	}
	return rec, nil
}
