package allowlist

import (
	"errors"
	"testing"

	"github.com/filebundler/file-bundler/internal/domain"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		wantErr  bool
	}{
		{"valid domains", []string{"example.com", "cdn.example.org"}, false},
		{"localhost allowed", []string{"localhost"}, false},
		{"ip allowed", []string{"127.0.0.1"}, false},
		{"bare tld rejected", []string{"com"}, true},
		{"multi-label suffix rejected", []string{"co.uk"}, true},
		{"no usable patterns", []string{"", "  "}, true},
		{"empty list", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.patterns)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%v) error = %v, wantErr %v", tt.patterns, err, tt.wantErr)
			}
		})
	}
}

func TestAllowlist_Check(t *testing.T) {
	al, err := New([]string{"example.com", "files.partner.io"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"exact match", "https://example.com/a.pdf", nil},
		{"subdomain match", "https://cdn.example.com/a.pdf", nil},
		{"deep subdomain match", "https://a.b.example.com/x", nil},
		{"case insensitive", "https://EXAMPLE.COM/a.pdf", nil},
		{"port stripped", "https://example.com:8443/a.pdf", nil},
		{"second pattern", "http://files.partner.io/report", nil},
		{"unlisted host", "https://evil.com/a.pdf", domain.ErrForbiddenDomain},
		{"suffix without dot boundary", "https://notexample.com/a", domain.ErrForbiddenDomain},
		{"parent of pattern", "https://partner.io/x", domain.ErrForbiddenDomain},
		{"unparsable url", "http://exa mple.com/", domain.ErrMalformedURL},
		{"no scheme", "example.com/a.pdf", domain.ErrMalformedURL},
		{"file scheme", "file:///etc/passwd", domain.ErrMalformedURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := al.Check(tt.url)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Check(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check(%q) = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestAllowlist_ValidateAll(t *testing.T) {
	al, err := New([]string{"example.com"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	err = al.ValidateAll([]string{
		"https://example.com/ok.pdf",
		"https://outside.org/nope.pdf",
		"https://example.com/also-ok.pdf",
	})
	if !errors.Is(err, domain.ErrForbiddenDomain) {
		t.Errorf("ValidateAll() = %v, want ErrForbiddenDomain", err)
	}

	if err := al.ValidateAll([]string{"https://example.com/a", "https://b.example.com/c"}); err != nil {
		t.Errorf("ValidateAll() = %v, want nil", err)
	}
}
