package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kintu/internal/digest"
	"kintu/internal/genesis"
	"kintu/internal/registry"
	"kintu/internal/twobit"
)

func writeTestDoc(t *testing.T) string {
	t.Helper()
	mk := func(key, seq string) genesis.Result {
		name := strings.ToUpper(key[:1]) + key[1:]
		return genesis.Result{
			Plant:       registry.Plant{Key: key, NameIndigenous: name, NameScientific: key + " scientific", Accession: "X_" + key},
			FastaHeader: key,
			SequenceLen: len(seq),
			Digest:      digest.Sequence(seq),
			Payload:     twobit.Encode(seq),
		}
	}
	doc, err := genesis.Build("", []genesis.Result{mk("kuka", "ACGTACGT"), mk("yage", "TTTT")}, "testroot")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := genesis.Encode(f, doc); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestTemplates(t *testing.T) {
	t.Helper()
	if err := loadTemplates("../../web/templates"); err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}
}

func TestPlantsHandlerFilter(t *testing.T) {
	loadTestTemplates(t)
	path := writeTestDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/plants?q=kuka", nil)
	rec := httptest.NewRecorder()
	plantsHandler(path)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Kuka") {
		t.Fatalf("expected kuka row in body:\n%s", body)
	}
	if strings.Contains(body, "Yage") {
		t.Fatalf("filter leaked yage into body:\n%s", body)
	}
}

func TestPlantHandlerNotFound(t *testing.T) {
	loadTestTemplates(t)
	path := writeTestDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/plant/missing", nil)
	rec := httptest.NewRecorder()
	plantHandler(path)(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAPIMerkleHandler(t *testing.T) {
	path := writeTestDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/api/merkle", nil)
	rec := httptest.NewRecorder()
	apiMerkleHandler(path)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		MerkleRoot   string               `json:"merkle_root"`
		Verification genesis.Verification `json:"verification"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.MerkleRoot != "testroot" {
		t.Fatalf("unexpected merkle root: %s", out.MerkleRoot)
	}
	if out.Verification.Method == "" {
		t.Fatal("verification block missing")
	}
}

func TestAPIPlantHandler(t *testing.T) {
	path := writeTestDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/api/plant/yage", nil)
	rec := httptest.NewRecorder()
	apiPlantHandler(path)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entry genesis.PlantEntry
	if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if entry.SequenceLengthBP != 4 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
