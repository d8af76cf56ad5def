package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gomoss/internal/retry"
	"gomoss/util"
)

const page = "<HTML><HEAD><TITLE>Moss Results</TITLE></HEAD><BODY>alice.py (92%)</BODY></HTML>"

func testFetcher() *Fetcher {
	f := NewFetcher(2*time.Second, util.Discard())
	f.Backoff = &retry.Backoff{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 3}
	return f
}

func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/results/1/123" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(page)) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := testFetcher().Fetch(context.Background(), srv.URL+"/results/1/123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != page {
		t.Errorf("body = %q", got)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(page)) //nolint:errcheck
	}))
	defer srv.Close()

	got, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != page || hits.Load() != 3 {
		t.Errorf("hits = %d body = %q", hits.Load(), got)
	}
}

func TestFetch_NotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/expired")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("err = %v, want 404", err)
	}
	if hits.Load() != 1 {
		t.Errorf("404 was retried: %d hits", hits.Load())
	}
}

func TestFetch_RejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"", "no", "ftp://moss/x", "http://"} {
		if _, err := testFetcher().Fetch(context.Background(), u); err == nil {
			t.Errorf("Fetch(%q) should fail", u)
		}
	}
}

func TestSave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page)) //nolint:errcheck
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "reports", "hw1.html")
	if err := testFetcher().Save(context.Background(), srv.URL, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != page {
		t.Errorf("saved %q", data)
	}
}
