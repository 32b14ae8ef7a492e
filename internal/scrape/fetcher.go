// Package scrape collects content from the configured external sources:
// beehiiv newsletters, Reddit communities and YouTube channels. Each
// scraper degrades gracefully, a source that fails returns an empty
// slice plus an error and never aborts the pipeline run.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/config"
)

// Fetcher wraps an HTTP client with the politeness rules shared by all
// scrapers: a fixed User-Agent, a delay between requests and bounded
// retries with linear backoff.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	delay      time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a fetcher from the scrape configuration
func NewFetcher(cfg config.ScrapeConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		delay:      cfg.RequestDelay,
		logger:     logger,
	}
}

// Get fetches a URL and returns the response body. Retries transient
// failures (network errors and 5xx responses) up to maxRetries times.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Debug("retrying request", "url", rawURL, "attempt", attempt)
			select {
			case <-time.After(f.delay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := f.do(ctx, http.MethodGet, rawURL, nil, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, lastErr
}

// GetJSON fetches a URL and decodes the response body into dst.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, headers map[string]string, dst interface{}) error {
	body, err := f.Get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// PostForm sends a form-encoded POST. Used by the Reddit OAuth flow.
func (f *Fetcher) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	body, _, err := f.do(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()), mergeHeaders(headers, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}))
	return body, err
}

// Pause sleeps for the configured inter-request delay, respecting
// context cancellation.
func (f *Fetcher) Pause(ctx context.Context) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, true, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("requesting %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("requesting %s: status %d", rawURL, resp.StatusCode)
	}

	return data, false, nil
}

func mergeHeaders(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
