package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Backend.BaseURL != "http://localhost:8000" {
			t.Errorf("expected backend base URL http://localhost:8000, got %s", config.Backend.BaseURL)
		}
		if config.Database.Path != "./mrd.db" {
			t.Errorf("expected database path ./mrd.db, got %s", config.Database.Path)
		}
		if config.Downloads.MaxConcurrent != 4 {
			t.Errorf("expected max_concurrent 4, got %d", config.Downloads.MaxConcurrent)
		}
		if config.Query.Supersede != SupersedeCancel {
			t.Errorf("expected supersede %q, got %q", SupersedeCancel, config.Query.Supersede)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Server.Port != DefaultConfig().Server.Port {
			t.Errorf("created config server port doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("overrides and keeps defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			testConfig := `[backend]
base_url = "http://recs.internal:9000/"
timeout = "15s"

[query]
supersede = "last-writer-wins"
`
			if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.BaseURL() != "http://recs.internal:9000" {
				t.Errorf("expected trimmed base URL, got %s", config.BaseURL())
			}
			if d, _ := config.BackendTimeout(); d != 15*time.Second {
				t.Errorf("expected 15s timeout, got %v", d)
			}
			if config.Query.Supersede != SupersedeLastWriterWins {
				t.Errorf("expected last-writer-wins, got %s", config.Query.Supersede)
			}
			if config.Downloads.Dir != "./downloads" {
				t.Errorf("expected default downloads dir to survive, got %s", config.Downloads.Dir)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("invalid supersede policy", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte("[query]\nsupersede = \"sometimes\"\n"), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "relative base url", mutate: func(c *Config) { c.Backend.BaseURL = "localhost:8000/api" }},
			{name: "bad timeout", mutate: func(c *Config) { c.Backend.Timeout = "soon" }},
			{name: "negative concurrency", mutate: func(c *Config) { c.Downloads.MaxConcurrent = -1 }},
			{name: "negative rate", mutate: func(c *Config) { c.Downloads.RateLimit = -2 }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(BaseURLEnv, "http://10.0.0.5:8000")
		config := DefaultConfig()
		config.ApplyEnv()

		if config.BaseURL() != "http://10.0.0.5:8000" {
			t.Errorf("expected env override, got %s", config.BaseURL())
		}
	})

	t.Run("Addr", func(t *testing.T) {
		if got := DefaultConfig().Addr(); got != "127.0.0.1:5173" {
			t.Errorf("expected 127.0.0.1:5173, got %s", got)
		}
	})
}
