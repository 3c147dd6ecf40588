// Package allowlist decides whether a URL may be fetched, keeping the
// bundling endpoint from being used as an open proxy.
package allowlist

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/filebundler/file-bundler/internal/domain"
)

// Allowlist holds the configured set of permitted domains. A pattern matches
// its own host exactly and any subdomain of it. Read-only after construction,
// safe for concurrent use.
type Allowlist struct {
	patterns map[string]struct{}
}

// New builds an allowlist from domain patterns. Patterns are normalized to
// lowercase without ports. A pattern that is itself a bare public suffix
// ("com", "co.uk") is rejected: it would allow effectively arbitrary hosts.
func New(patterns []string) (*Allowlist, error) {
	set := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = normalizeHost(p)
		if p == "" {
			continue
		}
		if ps, icann := publicsuffix.PublicSuffix(p); icann && ps == p {
			return nil, fmt.Errorf("allowlist pattern %q is a public suffix", p)
		}
		set[p] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("allowlist has no usable patterns")
	}
	return &Allowlist{patterns: set}, nil
}

// Check parses rawURL and verifies its host against the allowlist.
// A URL that cannot be parsed is a validation failure, not a crash.
func (a *Allowlist) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrMalformedURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrMalformedURL, u.Scheme)
	}
	host := normalizeHost(u.Host)
	if host == "" {
		return fmt.Errorf("%w: %q has no host", domain.ErrMalformedURL, rawURL)
	}
	if a.matches(host) {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrForbiddenDomain, host)
}

// ValidateAll checks every URL before any fetch begins. The first failure
// rejects the whole batch.
func (a *Allowlist) ValidateAll(urls []string) error {
	for _, u := range urls {
		if err := a.Check(u); err != nil {
			return err
		}
	}
	return nil
}

func (a *Allowlist) matches(host string) bool {
	if _, ok := a.patterns[host]; ok {
		return true
	}
	for p := range a.patterns {
		if strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
