package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Supersede policies for overlapping query submissions.
const (
	SupersedeCancel          = "cancel"
	SupersedeLastWriterWins  = "last-writer-wins"
	BaseURLEnv               = "MRD_BASE_URL"
	defaultBackendURL string = "http://localhost:8000"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Downloads DownloadsConfig `toml:"downloads"`
	Query     QueryConfig     `toml:"query"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
}

// BackendConfig locates the recommendation backend.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"` // Go duration; empty or "0" disables the client timeout
}

// DownloadsConfig controls where and how fast MP3 downloads run.
type DownloadsConfig struct {
	Dir           string  `toml:"dir"`
	MaxConcurrent int     `toml:"max_concurrent"`
	RateLimit     float64 `toml:"rate_limit"` // requests per second, 0 is unlimited
}

// QueryConfig controls the query controller.
type QueryConfig struct {
	Supersede string `toml:"supersede"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the web front end.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoggingConfig selects the log level and the TUI log file.
type LoggingConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values the rest of the application relies on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url %q is not an absolute URL", ErrInvalidConfig, c.Backend.BaseURL)
	}

	if _, err := c.BackendTimeout(); err != nil {
		return err
	}

	switch c.Query.Supersede {
	case SupersedeCancel, SupersedeLastWriterWins:
	default:
		return fmt.Errorf("%w: query.supersede must be %q or %q, got %q",
			ErrInvalidConfig, SupersedeCancel, SupersedeLastWriterWins, c.Query.Supersede)
	}

	if c.Downloads.MaxConcurrent < 0 {
		return fmt.Errorf("%w: downloads.max_concurrent must not be negative", ErrInvalidConfig)
	}
	if c.Downloads.RateLimit < 0 {
		return fmt.Errorf("%w: downloads.rate_limit must not be negative", ErrInvalidConfig)
	}

	return nil
}

// BackendTimeout parses backend.timeout. Zero means no timeout.
func (c *Config) BackendTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Backend.Timeout)
	if raw == "" || raw == "0" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: backend.timeout %q is not a valid duration", ErrInvalidConfig, raw)
	}
	return d, nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(BaseURLEnv)); v != "" {
		c.Backend.BaseURL = v
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Config) BaseURL() string {
	if c.Backend.BaseURL == "" {
		return defaultBackendURL
	}
	return strings.TrimRight(c.Backend.BaseURL, "/")
}

// Addr returns the listen address for the web front end.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
