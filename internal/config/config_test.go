package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
fetch:
  allowed_domains:
    - example.com
    - cdn.example.org
  timeout: 10s
  concurrency: 4
http:
  bind_addr: 127.0.0.1:9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTP.BindAddr != "127.0.0.1:9090" {
		t.Errorf("bind_addr = %q, want 127.0.0.1:9090", cfg.HTTP.BindAddr)
	}
	if len(cfg.Fetch.AllowedDomains) != 2 {
		t.Errorf("allowed_domains length = %d, want 2", len(cfg.Fetch.AllowedDomains))
	}
	if got := cfg.Fetch.GetTimeout(); got != 10*time.Second {
		t.Errorf("fetch timeout = %v, want 10s", got)
	}
	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Fetch.Concurrency)
	}

	// Defaults applied
	if cfg.Archive.DefaultName != "files.zip" {
		t.Errorf("archive default name = %q, want files.zip", cfg.Archive.DefaultName)
	}
	if cfg.Fetch.MaxFileSizeMB != 64 {
		t.Errorf("max_file_size_mb = %d, want 64", cfg.Fetch.MaxFileSizeMB)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by default")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTP: HTTPConfig{
				BindAddr:     "0.0.0.0:8080",
				ReadTimeout:  "30s",
				WriteTimeout: "120s",
				IdleTimeout:  "60s",
			},
			Fetch: FetchConfig{
				AllowedDomains: []string{"example.com"},
				Timeout:        "30s",
				Concurrency:    1,
				MaxFileSizeMB:  64,
				MaxTotalSizeMB: 256,
				MaxFiles:       100,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no allowed domains", func(c *Config) { c.Fetch.AllowedDomains = nil }, true},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }, true},
		{"zero file size", func(c *Config) { c.Fetch.MaxFileSizeMB = 0 }, true},
		{"total below per-file", func(c *Config) { c.Fetch.MaxTotalSizeMB = 32 }, true},
		{"bad duration", func(c *Config) { c.Fetch.Timeout = "soon" }, true},
		{"history without path", func(c *Config) { c.History.Enabled = true }, true},
		{"empty bind addr", func(c *Config) { c.HTTP.BindAddr = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
