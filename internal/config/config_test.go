package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional; these tests fail otherwise.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default WordLimit is 500", func(t *testing.T) {
		t.Parallel()
		if cfg.WordLimit != 500 {
			t.Errorf("expected WordLimit to be 500, got %d", cfg.WordLimit)
		}
	})

	t.Run("default MaxConcurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxConcurrency != 4 {
			t.Errorf("expected MaxConcurrency to be 4, got %d", cfg.MaxConcurrency)
		}
	})

	t.Run("default PollInterval is 3 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.PollInterval != 3*time.Second {
			t.Errorf("expected PollInterval to be 3s, got %v", cfg.PollInterval)
		}
	})

	t.Run("default GlobalTimeout is 10 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.GlobalTimeout != 10*time.Minute {
			t.Errorf("expected GlobalTimeout to be 10m, got %v", cfg.GlobalTimeout)
		}
	})

	t.Run("default MaxWait follows GlobalTimeout", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxWait != 0 {
			t.Errorf("expected MaxWait to be unset, got %v", cfg.MaxWait)
		}
		if cfg.EffectiveMaxWait() != cfg.GlobalTimeout {
			t.Errorf("expected EffectiveMaxWait to be %v, got %v", cfg.GlobalTimeout, cfg.EffectiveMaxWait())
		}
	})

	t.Run("default pipeline settings are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.ValidatePipeline(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"contract.docx"}
		cfg.BaseURL = "https://mask.example.com/api/vault"
		cfg.AuthKey = "secret"
		return cfg
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"missing base URL", func(c *Config) { c.BaseURL = "" }, ErrMissingBaseURL},
		{"missing auth key", func(c *Config) { c.AuthKey = "" }, ErrMissingAuthKey},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, ErrInvalidRequestTimeout},
		{"zero word limit", func(c *Config) { c.WordLimit = 0 }, ErrInvalidWordLimit},
		{"negative word limit", func(c *Config) { c.WordLimit = -5 }, ErrInvalidWordLimit},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }, ErrInvalidConcurrency},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, ErrInvalidPollInterval},
		{"backoff below one", func(c *Config) { c.PollBackoff = 0.5 }, ErrInvalidPollBackoff},
		{"max interval below interval", func(c *Config) { c.MaxPollInterval = time.Second }, ErrInvalidMaxPollInterval},
		{"zero global timeout", func(c *Config) { c.GlobalTimeout = 0 }, ErrInvalidTimeout},
		{"negative max wait", func(c *Config) { c.MaxWait = -time.Second }, ErrInvalidMaxWait},
		{"both report formats", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"minio without bucket", func(c *Config) { c.Minio.Endpoint = "localhost:9000" }, ErrMissingBucket},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// TestEffectiveMaxWait tests that an explicit per-record budget wins.
func TestEffectiveMaxWait(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.MaxWait = 30 * time.Second
	if got := cfg.EffectiveMaxWait(); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.docmask")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".docmask")
		content := `masking:
  base_url: "https://mask.example.com/api/vault"
  auth_key: "file-key"
  proxy: "127.0.0.1:1080"
  request_timeout: 45s
  headers:
    X-Tenant: "legal"
pipeline:
  word_limit: 250
  max_concurrency: 2
  poll_interval: 1s
  poll_backoff: 2
  max_poll_interval: 8s
  global_timeout: 5m
  max_wait: 2m
output:
  dir: "/tmp/out"
  archive_dir: "/tmp/archive"
  overwrite: true
minio:
  endpoint: "localhost:9000"
  bucket: "masked"
  use_ssl: true
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.BaseURL != "https://mask.example.com/api/vault" || cfg.AuthKey != "file-key" {
			t.Errorf("masking section not applied: %q %q", cfg.BaseURL, cfg.AuthKey)
		}
		if !cfg.Overwrite {
			t.Error("expected output.overwrite to be applied")
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("expected proxy, got %q", cfg.ProxyAddress)
		}
		if cfg.RequestTimeout != 45*time.Second {
			t.Errorf("expected 45s request timeout, got %v", cfg.RequestTimeout)
		}
		if cfg.Headers["X-Tenant"] != "legal" {
			t.Errorf("expected X-Tenant header, got %v", cfg.Headers)
		}
		if cfg.WordLimit != 250 || cfg.MaxConcurrency != 2 {
			t.Errorf("unexpected pipeline values: %d %d", cfg.WordLimit, cfg.MaxConcurrency)
		}
		if cfg.PollInterval != time.Second || cfg.PollBackoff != 2 || cfg.MaxPollInterval != 8*time.Second {
			t.Errorf("unexpected polling values: %v %v %v", cfg.PollInterval, cfg.PollBackoff, cfg.MaxPollInterval)
		}
		if cfg.GlobalTimeout != 5*time.Minute || cfg.MaxWait != 2*time.Minute {
			t.Errorf("unexpected deadlines: %v %v", cfg.GlobalTimeout, cfg.MaxWait)
		}
		if cfg.OutputDir != "/tmp/out" || cfg.ArchiveDir != "/tmp/archive" {
			t.Errorf("unexpected output dirs: %q %q", cfg.OutputDir, cfg.ArchiveDir)
		}
		if !cfg.Minio.Enabled() || cfg.Minio.Bucket != "masked" || !cfg.Minio.UseSSL {
			t.Errorf("unexpected minio config: %+v", cfg.Minio)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".docmask")
		if err := os.WriteFile(configPath, []byte("pipeline:\n  word_limit: 100\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.WordLimit != 100 {
			t.Errorf("expected word limit 100, got %d", cfg.WordLimit)
		}
		if cfg.PollInterval != DefaultPollInterval || cfg.MaxConcurrency != DefaultMaxConcurrency {
			t.Error("defaults should survive a partial file")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".docmask")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestApplyEnv tests credential overrides from the environment.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		AuthKeyEnv:        "env-key",
		MinioSecretKeyEnv: "env-secret",
		MinioAccessKeyEnv: "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := NewConfig()
	cfg.AuthKey = "file-key"
	cfg.Minio.AccessKey = "file-access"
	ApplyEnv(cfg, lookup)

	if cfg.AuthKey != "env-key" {
		t.Errorf("expected env auth key to win, got %q", cfg.AuthKey)
	}
	if cfg.Minio.SecretKey != "env-secret" {
		t.Errorf("expected env secret key, got %q", cfg.Minio.SecretKey)
	}
	if cfg.Minio.AccessKey != "file-access" {
		t.Errorf("empty env value should not override, got %q", cfg.Minio.AccessKey)
	}
}

// TestErrMissingAuthKeyNamesEnv tests that the error tells the user where to set the key.
func TestErrMissingAuthKeyNamesEnv(t *testing.T) {
	t.Parallel()

	if !strings.Contains(ErrMissingAuthKey.Error(), AuthKeyEnv) {
		t.Errorf("error message should mention %s: %v", AuthKeyEnv, ErrMissingAuthKey)
	}
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("masking: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("%s dir %q should end with %q", name, dir, AppName)
		}
	}
}
