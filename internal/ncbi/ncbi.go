package ncbi

// Package ncbi downloads nucleotide sequences from the NCBI efetch API so a
// generated genesis document can be re-verified against the public record.
// Responses are cached in a JSON file with a TTL; the pipeline itself never
// touches the network, only the verify mode does.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"kintu/internal/fasta"
)

// DatabaseURL is the public nucleotide database a human can browse.
const DatabaseURL = "https://www.ncbi.nlm.nih.gov/nucleotide/"

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 30 * time.Second}

type cachedEntry struct {
	Sequence    string `json:"sequence"`
	Header      string `json:"header"`
	RetrievedAt int64  `json:"retrieved_at"`
}

var (
	cacheMu       sync.RWMutex
	cache         map[string]cachedEntry
	cacheLoaded   bool
	cacheFilePath string
	cacheTTLSecs  int64
)

// SetCacheFilePath overrides the default on-disk cache location.
func SetCacheFilePath(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheFilePath = path
	cacheLoaded = false
}

// SetCacheTTLSeconds overrides the cache TTL. Zero or negative keeps entries
// forever.
func SetCacheTTLSeconds(secs int64) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheTTLSecs = secs
}

// cache TTL in seconds (default 7 days)
func cacheTTL() int64 {
	cacheMu.RLock()
	v := cacheTTLSecs
	cacheMu.RUnlock()
	if v != 0 {
		return v
	}
	if s := os.Getenv("NCBI_CACHE_TTL_SECONDS"); s != "" {
		if d, err := time.ParseDuration(s + "s"); err == nil {
			return int64(d.Seconds())
		}
	}
	return int64(7 * 24 * 3600)
}

func defaultCachePath() string {
	if cacheFilePath != "" {
		return cacheFilePath
	}
	if dir, err := os.UserCacheDir(); err == nil {
		p := filepath.Join(dir, "kintu")
		_ = os.MkdirAll(p, 0o755)
		return filepath.Join(p, "ncbi_cache.json")
	}
	return filepath.Join(os.TempDir(), "kintu_ncbi_cache.json")
}

func loadCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cacheLoaded {
		return
	}
	cache = make(map[string]cachedEntry)
	data, err := os.ReadFile(defaultCachePath())
	if err != nil {
		cacheLoaded = true
		return
	}
	_ = json.Unmarshal(data, &cache)
	cacheLoaded = true
}

// FlushCache writes the in-memory cache to disk.
func FlushCache() {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	b, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(defaultCachePath(), b, 0o644)
}

func getCached(acc string) (cachedEntry, bool) {
	loadCache()
	ttl := cacheTTL()
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	e, ok := cache[acc]
	if !ok {
		return cachedEntry{}, false
	}
	if ttl > 0 && time.Now().Unix()-e.RetrievedAt > ttl {
		return cachedEntry{}, false
	}
	return e, true
}

func setCached(acc string, e cachedEntry) {
	if acc == "" || e.Sequence == "" {
		return
	}
	loadCache()
	cacheMu.Lock()
	e.RetrievedAt = time.Now().Unix()
	cache[acc] = e
	cacheMu.Unlock()
	FlushCache()
}

// VerificationURL builds the public cross-reference URL for an accession.
func VerificationURL(accession string) string {
	return DatabaseURL + accession
}

// FetchSequence downloads the FASTA record for a nucleotide accession and
// returns the parsed record (uppercased sequence, no newlines). Results are
// cached; transient failures and 429 responses are retried with backoff.
func FetchSequence(ctx context.Context, accession string) (fasta.Record, error) {
	if accession == "" {
		return fasta.Record{}, fmt.Errorf("ncbi: empty accession")
	}

	if e, ok := getCached(accession); ok {
		return fasta.Record{Header: e.Header, Sequence: e.Sequence}, nil
	}

	base := "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi?db=nuccore&id=%s&rettype=fasta&retmode=text"
	if apiKey := os.Getenv("NCBI_API_KEY"); apiKey != "" {
		base += "&api_key=" + apiKey
	}
	url := fmt.Sprintf(base, accession)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fasta.Record{}, err
		}
		req.Header.Set("User-Agent", "kintu-verify/1.0")
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, rerr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusOK:
				if rerr != nil {
					return fasta.Record{}, rerr
				}
				rec, perr := fasta.Parse(strings.NewReader(string(body)))
				if perr != nil {
					return fasta.Record{}, fmt.Errorf("ncbi: efetch %s: %w", accession, perr)
				}
				setCached(accession, cachedEntry{Sequence: rec.Sequence, Header: rec.Header})
				return rec, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("ncbi: efetch returned 429")
			default:
				return fasta.Record{}, fmt.Errorf("ncbi: efetch returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		select {
		case <-ctx.Done():
			return fasta.Record{}, ctx.Err()
		case <-time.After(time.Duration(attempt*500) * time.Millisecond):
		}
	}
	return fasta.Record{}, lastErr
}
