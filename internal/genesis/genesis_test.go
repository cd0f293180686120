package genesis

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"kintu/internal/digest"
	"kintu/internal/registry"
	"kintu/internal/twobit"
)

func sampleResult(key, seq string) Result {
	p := twobit.Encode(seq)
	return Result{
		Plant:       registry.Plant{Key: key, NameIndigenous: key, File: key + ".fasta", Accession: "X_" + key},
		FastaHeader: key + " header",
		SequenceLen: len(seq),
		Digest:      digest.Sequence(seq),
		Payload:     p,
	}
}

func TestRatio(t *testing.T) {
	// "ACGT": 4 bp into 1 byte is a 75% reduction
	if got := Ratio(4, 1); got != 75.0 {
		t.Fatalf("expected 75.0, got %v", got)
	}
	if got := Ratio(3, 1); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
	if got := Ratio(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty sequence, got %v", got)
	}
}

func TestBuild(t *testing.T) {
	results := []Result{sampleResult("kuka", "ACGT")}
	doc, err := Build("", results, "deadbeef")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	k := doc.Kintu
	if k.MerkleRoot != "deadbeef" {
		t.Fatalf("unexpected merkle root: %s", k.MerkleRoot)
	}
	if k.Timestamp != DefaultTimestamp {
		t.Fatalf("expected default timestamp, got %s", k.Timestamp)
	}
	e, ok := k.Plants["kuka"]
	if !ok {
		t.Fatalf("kuka missing from plants: %+v", k.Plants)
	}
	if e.SequenceLengthBP != 4 || e.CompressedSizeBytes != 1 {
		t.Fatalf("unexpected sizes: %+v", e)
	}
	if e.CompressionRatioPercent != 75.0 {
		t.Fatalf("expected ratio 75.0, got %v", e.CompressionRatioPercent)
	}
	if e.CompressedHex != "1b" {
		t.Fatalf("expected compressed hex 1b, got %q", e.CompressedHex)
	}
	if e.VerificationURL != "https://www.ncbi.nlm.nih.gov/nucleotide/X_kuka" {
		t.Fatalf("unexpected verification url: %s", e.VerificationURL)
	}
	if k.Verification.Method == "" || k.Verification.Instructions == "" {
		t.Fatalf("verification block incomplete: %+v", k.Verification)
	}
}

func TestBuildMarksFailures(t *testing.T) {
	results := []Result{
		sampleResult("kuka", "ACGT"),
		{Plant: registry.Plant{Key: "yage"}, Err: errors.New("file missing")},
	}
	doc, err := Build("", results, "root")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, ok := doc.Kintu.Plants["yage"]; ok {
		t.Fatal("failed plant must not appear under plants")
	}
	if doc.Kintu.Failed["yage"] != "file missing" {
		t.Fatalf("failed plant not marked: %+v", doc.Kintu.Failed)
	}
}

func TestBuildRejectsAllFailed(t *testing.T) {
	results := []Result{{Plant: registry.Plant{Key: "kuka"}, Err: errors.New("boom")}}
	if _, err := Build("", results, ""); err == nil {
		t.Fatal("expected error when no plant succeeded")
	}
}

func TestBuildRejectsMissingDigest(t *testing.T) {
	results := []Result{{Plant: registry.Plant{Key: "kuka"}}}
	if _, err := Build("", results, ""); err == nil {
		t.Fatal("expected error for result without digest or error")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	results := []Result{
		sampleResult("kuka", "ACGTACGT"),
		sampleResult("yage", "TTTT"),
		sampleResult("chacruna", "ACGN"),
	}
	doc, err := Build("", results, "root")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	var a, b bytes.Buffer
	if err := Encode(&a, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := Encode(&b, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("encoding not byte-identical across runs")
	}
	if !strings.Contains(a.String(), `"merkle_root": "root"`) {
		t.Fatalf("merkle_root missing from output:\n%s", a.String())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc, err := Build("", []Result{sampleResult("kuka", "ACGT")}, "root")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if back.Kintu.Plants["kuka"].SHA256Hash != doc.Kintu.Plants["kuka"].SHA256Hash {
		t.Fatal("digest lost in round trip")
	}
}
