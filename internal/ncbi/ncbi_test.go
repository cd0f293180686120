package ncbi

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func resetCache(t *testing.T) {
	t.Helper()
	cacheFilePath = filepath.Join(t.TempDir(), "ncbi_cache.json")
	cache = nil
	cacheLoaded = false
	cacheTTLSecs = 0
}

func TestFetchSequence(t *testing.T) {
	body := ">NC_030601.1 Erythroxylum novogranatense chloroplast\nacgt\nACGT\n"
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if !strings.Contains(r.URL.RawQuery, "rettype=fasta") {
			t.Fatalf("expected fasta rettype, got %s", r.URL.RawQuery)
		}
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	})}
	resetCache(t)

	rec, err := FetchSequence(context.Background(), "NC_030601.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Sequence != "ACGTACGT" {
		t.Fatalf("expected ACGTACGT, got %q", rec.Sequence)
	}
	if !strings.HasPrefix(rec.Header, "NC_030601.1") {
		t.Fatalf("unexpected header: %q", rec.Header)
	}

	// second call should hit cache and not invoke HTTP transport
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("HTTP should not be called on cached fetch")
		return nil, nil
	})}
	rec2, err := FetchSequence(context.Background(), "NC_030601.1")
	if err != nil {
		t.Fatalf("unexpected error on cached fetch: %v", err)
	}
	if rec2.Sequence != "ACGTACGT" {
		t.Fatalf("expected cached sequence, got %q", rec2.Sequence)
	}
}

func TestFetchSequenceRetriesOn429(t *testing.T) {
	calls := 0
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return &http.Response{StatusCode: 429, Body: io.NopCloser(strings.NewReader("")), Header: make(http.Header)}, nil
		}
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(">acc\nGGGG\n")),
			Header:     make(http.Header),
		}, nil
	})}
	resetCache(t)

	rec, err := FetchSequence(context.Background(), "ACC429")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Sequence != "GGGG" || calls != 2 {
		t.Fatalf("expected retry then success, got seq=%q calls=%d", rec.Sequence, calls)
	}
}

func TestFetchSequenceHardFailure(t *testing.T) {
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader("server error")), Header: make(http.Header)}, nil
	})}
	resetCache(t)

	if _, err := FetchSequence(context.Background(), "BAD"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	resetCache(t)
	cache = map[string]cachedEntry{
		"OLDACC": {Sequence: "AAAA", RetrievedAt: time.Now().Unix() - 100000},
	}
	cacheLoaded = true
	SetCacheTTLSeconds(1)
	defer SetCacheTTLSeconds(0)

	if _, ok := getCached("OLDACC"); ok {
		t.Fatal("expected OLDACC to be expired")
	}
}

func TestVerificationURL(t *testing.T) {
	if got := VerificationURL("NC_030601.1"); got != "https://www.ncbi.nlm.nih.gov/nucleotide/NC_030601.1" {
		t.Fatalf("unexpected url: %s", got)
	}
}
