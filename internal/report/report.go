// Package report downloads the HTML results page a MOSS session
// points at.
package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	mosserr "gomoss/internal/errors"
	"gomoss/internal/retry"
	"gomoss/util"
)

// MaxPageSize bounds how much of a report page is read.
const MaxPageSize = 32 << 20

// Fetcher retrieves report pages over HTTP.
type Fetcher struct {
	Client  *http.Client
	Backoff *retry.Backoff
	Logger  *util.Logger
}

// NewFetcher returns a Fetcher with a bounded client timeout and the
// default backoff.
func NewFetcher(timeout time.Duration, logger *util.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		Client:  &http.Client{Timeout: timeout},
		Backoff: retry.DefaultBackoff(),
		Logger:  logger,
	}
}

// Fetch returns the body of the page at rawURL.  Server errors and
// transport failures are retried; 4xx responses are not.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("report: %q is not an http(s) URL", rawURL)
	}

	b := f.Backoff
	if b == nil {
		b = retry.DefaultBackoff()
	}
	if b.OnRetry == nil {
		b.OnRetry = func(attempt int, wait time.Duration, err error) {
			f.Logger.Verbose("report: attempt %d failed (%v), retrying in %v", attempt, err, wait.Truncate(time.Millisecond))
		}
	}

	var body []byte
	err = b.Do(ctx, func(int) error {
		var ferr error
		body, ferr = f.get(ctx, u.String())
		return ferr
	})
	if err != nil {
		return nil, err
	}
	f.Logger.Verbose("report: fetched %d bytes from %s", len(body), u.Host)
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(err)
		}
		return nil, mosserr.Wrap("get", req.URL.Host, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("report: %s", resp.Status)
	case resp.StatusCode >= 300:
		return nil, retry.Permanent(fmt.Errorf("report: %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return nil, mosserr.Wrap("read", req.URL.Host, err)
	}
	return data, nil
}

// Save fetches rawURL and writes the page to path, creating parent
// directories as needed.
func (f *Fetcher) Save(ctx context.Context, rawURL, path string) error {
	data, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	f.Logger.Info("report saved to %s", path)
	return nil
}
