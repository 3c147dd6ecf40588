package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Archive ArchiveConfig `mapstructure:"archive"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	BindAddr       string  `mapstructure:"bind_addr"`
	ReadTimeout    string  `mapstructure:"read_timeout"`
	WriteTimeout   string  `mapstructure:"write_timeout"`
	IdleTimeout    string  `mapstructure:"idle_timeout"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	MaxBodyBytes   int64   `mapstructure:"max_body_bytes"`
}

// FetchConfig controls outbound retrieval of the files being bundled
type FetchConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains"`
	Timeout        string   `mapstructure:"timeout"`
	Concurrency    int      `mapstructure:"concurrency"`
	MaxFileSizeMB  int      `mapstructure:"max_file_size_mb"`
	MaxTotalSizeMB int      `mapstructure:"max_total_size_mb"`
	MaxFiles       int      `mapstructure:"max_files"`
	SkipTLSVerify  bool     `mapstructure:"skip_tls_verify"`
}

// ArchiveConfig contains archive assembly settings
type ArchiveConfig struct {
	DefaultName string `mapstructure:"default_name"`
}

// HistoryConfig controls the optional bundle audit log
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("http.bind_addr", "0.0.0.0:8080")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "120s")
	viper.SetDefault("http.idle_timeout", "60s")
	viper.SetDefault("http.rate_limit_rps", 5.0)
	viper.SetDefault("http.rate_limit_burst", 20)
	viper.SetDefault("http.max_body_bytes", 1024*1024)
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.concurrency", 1)
	viper.SetDefault("fetch.max_file_size_mb", 64)
	viper.SetDefault("fetch.max_total_size_mb", 256)
	viper.SetDefault("fetch.max_files", 100)
	viper.SetDefault("fetch.skip_tls_verify", false)
	viper.SetDefault("archive.default_name", "files.zip")
	viper.SetDefault("history.enabled", false)
	viper.SetDefault("history.db_path", "")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.HTTP.BindAddr == "" {
		return fmt.Errorf("http.bind_addr is required")
	}
	if len(c.Fetch.AllowedDomains) == 0 {
		return fmt.Errorf("fetch.allowed_domains is required")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive")
	}
	if c.Fetch.MaxFileSizeMB <= 0 {
		return fmt.Errorf("fetch.max_file_size_mb must be positive")
	}
	if c.Fetch.MaxTotalSizeMB < c.Fetch.MaxFileSizeMB {
		return fmt.Errorf("fetch.max_total_size_mb must be at least fetch.max_file_size_mb")
	}
	if c.Fetch.MaxFiles <= 0 {
		return fmt.Errorf("fetch.max_files must be positive")
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path is required when history is enabled")
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"http.read_timeout", c.HTTP.ReadTimeout},
		{"http.write_timeout", c.HTTP.WriteTimeout},
		{"http.idle_timeout", c.HTTP.IdleTimeout},
		{"fetch.timeout", c.Fetch.Timeout},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s is not a valid duration: %w", field.name, err)
		}
	}

	return nil
}

// GetReadTimeout returns the parsed HTTP read timeout
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	return parseDurationOr(c.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the parsed HTTP write timeout
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.WriteTimeout, 120*time.Second)
}

// GetIdleTimeout returns the parsed HTTP idle timeout
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	return parseDurationOr(c.IdleTimeout, 60*time.Second)
}

// GetTimeout returns the parsed per-fetch timeout
func (c *FetchConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// GetMaxFileSize returns the per-file size cap in bytes
func (c *FetchConfig) GetMaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// GetMaxTotalSize returns the whole-archive input budget in bytes
func (c *FetchConfig) GetMaxTotalSize() int64 {
	return int64(c.MaxTotalSizeMB) * 1024 * 1024
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
