package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"data_dir":"seqs","output_json":"out.json","workers":4,"strict":true,"ncbi_cache_ttl_seconds":60}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.DataDir != "seqs" || c.OutputJSON != "out.json" || c.Workers != 4 || !c.Strict || c.NcbiCacheTTLSecs != 60 {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if c.DataDir != "" || c.Workers != 0 {
		t.Fatalf("expected zero defaults, got %+v", c)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{bad"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
