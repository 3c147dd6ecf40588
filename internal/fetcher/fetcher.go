// Package fetcher retrieves remote files over HTTP with bounded body sizes.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/filebundler/file-bundler/internal/domain"
)

// Client fetches remote resources for archiving.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Config controls outbound fetch behavior.
type Config struct {
	Timeout       time.Duration
	SkipTLSVerify bool
	UserAgent     string
}

// DefaultConfig returns default fetch configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		UserAgent: "file-bundler/1.0",
	}
}

// New creates a fetch client.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves url and returns the full response body. Responses larger
// than maxBytes fail with ErrFileTooLarge; non-2xx statuses fail with
// ErrUpstreamStatus. maxBytes <= 0 means no cap.
func (c *Client) Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	body, _, err := c.fetch(ctx, url, maxBytes)
	return body, err
}

// FetchWithType retrieves url and additionally returns the upstream
// Content-Type header, for callers that relay the resource.
func (c *Client) FetchWithType(ctx context.Context, url string, maxBytes int64) ([]byte, string, error) {
	return c.fetch(ctx, url, maxBytes)
}

func (c *Client) fetch(ctx context.Context, url string, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch %s: %w: %d", url, domain.ErrUpstreamStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		// Read one extra byte to detect oversized bodies.
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read body of %s: %w", url, err)
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, "", fmt.Errorf("fetch %s: %w (limit %d bytes)", url, domain.ErrFileTooLarge, maxBytes)
	}

	return body, contentType, nil
}
