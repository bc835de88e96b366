package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".docmask"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .docmask configuration file.
//
// Durations are written the way time.ParseDuration reads them ("3s", "10m").
// Zero values mean "not set" and leave the corresponding Config field alone.
type File struct {
	Masking  MaskingSection  `yaml:"masking,omitempty"`
	Pipeline PipelineSection `yaml:"pipeline,omitempty"`
	Output   OutputSection   `yaml:"output,omitempty"`
	Minio    MinioConfig     `yaml:"minio,omitempty"`
}

// MaskingSection configures the connection to the masking service.
type MaskingSection struct {
	// BaseURL is the API root of the masking service.
	BaseURL string `yaml:"base_url,omitempty"`

	// AuthKey is the bearer token. Prefer the DOCMASK_AUTH_KEY environment
	// variable over storing it in the file.
	AuthKey string `yaml:"auth_key,omitempty"`

	// Proxy is an optional SOCKS5 proxy address ("host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// RequestTimeout is the timeout for one HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// PipelineSection holds the chunking and polling tunables.
type PipelineSection struct {
	WordLimit       int           `yaml:"word_limit,omitempty"`
	MaxConcurrency  int           `yaml:"max_concurrency,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
	PollBackoff     float64       `yaml:"poll_backoff,omitempty"`
	MaxPollInterval time.Duration `yaml:"max_poll_interval,omitempty"`
	GlobalTimeout   time.Duration `yaml:"global_timeout,omitempty"`
	MaxWait         time.Duration `yaml:"max_wait,omitempty"`
}

// OutputSection controls where results go and what happens to sources.
type OutputSection struct {
	Dir        string `yaml:"dir,omitempty"`
	ArchiveDir string `yaml:"archive_dir,omitempty"`
	KeepSource bool   `yaml:"keep_source,omitempty"`
	Overwrite  bool   `yaml:"overwrite,omitempty"`
	DBDir      string `yaml:"db_dir,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error based on whether the config file path
// was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every value set in the file onto cfg.
// Values left at their zero value in the file do not override cfg, so
// defaults from NewConfig survive a partial file.
func (cf *File) Apply(cfg *Config) {
	m := cf.Masking
	if m.BaseURL != "" {
		cfg.BaseURL = m.BaseURL
	}
	if m.AuthKey != "" {
		cfg.AuthKey = m.AuthKey
	}
	if m.Proxy != "" {
		cfg.ProxyAddress = m.Proxy
	}
	if len(m.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(m.Headers))
		}
		for k, v := range m.Headers {
			cfg.Headers[k] = v
		}
	}
	if m.RequestTimeout != 0 {
		cfg.RequestTimeout = m.RequestTimeout
	}

	p := cf.Pipeline
	if p.WordLimit != 0 {
		cfg.WordLimit = p.WordLimit
	}
	if p.MaxConcurrency != 0 {
		cfg.MaxConcurrency = p.MaxConcurrency
	}
	if p.PollInterval != 0 {
		cfg.PollInterval = p.PollInterval
	}
	if p.PollBackoff != 0 {
		cfg.PollBackoff = p.PollBackoff
	}
	if p.MaxPollInterval != 0 {
		cfg.MaxPollInterval = p.MaxPollInterval
	}
	if p.GlobalTimeout != 0 {
		cfg.GlobalTimeout = p.GlobalTimeout
	}
	if p.MaxWait != 0 {
		cfg.MaxWait = p.MaxWait
	}

	o := cf.Output
	if o.Dir != "" {
		cfg.OutputDir = o.Dir
	}
	if o.ArchiveDir != "" {
		cfg.ArchiveDir = o.ArchiveDir
	}
	if o.KeepSource {
		cfg.KeepSource = true
	}
	if o.Overwrite {
		cfg.Overwrite = true
	}
	if o.DBDir != "" {
		cfg.DBDir = o.DBDir
	}

	if cf.Minio.Endpoint != "" {
		cfg.Minio = cf.Minio
	}
}

// ApplyEnv overrides credentials from the environment.
// lookup is os.LookupEnv in production and a map lookup in tests.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(AuthKeyEnv); ok && v != "" {
		cfg.AuthKey = v
	}
	if v, ok := lookup(MinioAccessKeyEnv); ok && v != "" {
		cfg.Minio.AccessKey = v
	}
	if v, ok := lookup(MinioSecretKeyEnv); ok && v != "" {
		cfg.Minio.SecretKey = v
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .docmask in the current directory
// 3. Look for .docmask in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
