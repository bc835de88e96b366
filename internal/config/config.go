package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The pipeline defaults follow the behavior of the masking service this tool
// was written for: it accepts a few hundred words per request comfortably and
// usually resolves a chunk within a few polls spaced seconds apart.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docmask"

	// DefaultWordLimit is the maximum number of words per chunk.
	// 500 words stays well inside the service's request size limit while
	// keeping the number of requests per document low.
	DefaultWordLimit = 500

	// DefaultMaxConcurrency is the number of in-flight requests allowed at once.
	// The service is rate limited; 4 keeps a single document from tripping it.
	DefaultMaxConcurrency = 4

	// DefaultPollInterval is the initial delay between poll rounds.
	DefaultPollInterval = 3 * time.Second

	// DefaultPollBackoff is the factor applied to the interval after each round.
	// 1.5 reaches DefaultMaxPollInterval after about four rounds.
	DefaultPollBackoff = 1.5

	// DefaultMaxPollInterval caps the interval growth.
	DefaultMaxPollInterval = 15 * time.Second

	// DefaultGlobalTimeout bounds the polling phase of one document.
	// Chunks still pending after this are timed out and fall back to their
	// original text.
	DefaultGlobalTimeout = 10 * time.Minute

	// DefaultRequestTimeout is the timeout for a single HTTP request to the
	// masking service.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultUserAgent identifies docmask in HTTP requests.
	DefaultUserAgent = "docmask/1.0 (+https://github.com/nao1215/docmask)"

	// AuthKeyEnv is the environment variable that overrides the auth key from
	// the configuration file.
	AuthKeyEnv = "DOCMASK_AUTH_KEY" //nolint:gosec // Environment variable name, not a credential

	// MinioAccessKeyEnv overrides minio.access_key from the configuration file.
	MinioAccessKeyEnv = "DOCMASK_MINIO_ACCESS_KEY" //nolint:gosec // Environment variable name

	// MinioSecretKeyEnv overrides minio.secret_key from the configuration file.
	MinioSecretKeyEnv = "DOCMASK_MINIO_SECRET_KEY" //nolint:gosec // Environment variable name
)

// Config holds all configuration options for docmask.
// This struct is populated from the configuration file, the environment and
// CLI flags (in that order of increasing precedence) and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We keep a single flat struct instead of nested structs
// for the runtime configuration. The YAML file is nested for readability
// (see File), and File.Apply flattens it onto Config.
type Config struct {
	// BaseURL is the masking service API root, e.g. "https://api.example.com/api/vault".
	BaseURL string

	// AuthKey is the bearer token sent to the masking service.
	// Never log this value; the redacting log handler masks it anyway.
	AuthKey string

	// ProxyAddress is an optional SOCKS5 proxy ("host:port") for egress to
	// the masking service. Empty means direct connections.
	ProxyAddress string

	// Headers are extra HTTP headers sent with every masking request.
	Headers map[string]string

	// UserAgent is the User-Agent header sent with masking requests.
	UserAgent string

	// RequestTimeout is the timeout for one HTTP request.
	RequestTimeout time.Duration

	// WordLimit is the maximum number of words per chunk. Must be positive.
	WordLimit int

	// MaxConcurrency bounds concurrent submissions and concurrent polls
	// within a round. Must be positive.
	MaxConcurrency int

	// PollInterval is the delay before the second poll round.
	PollInterval time.Duration

	// PollBackoff is the multiplier applied to the interval after each round.
	// 1 disables backoff.
	PollBackoff float64

	// MaxPollInterval caps the interval growth.
	MaxPollInterval time.Duration

	// GlobalTimeout bounds the polling phase of one document, measured from
	// the start of polling.
	GlobalTimeout time.Duration

	// MaxWait is the per-record wait budget measured from submission.
	// Zero means "same as GlobalTimeout".
	MaxWait time.Duration

	// OutputDir is the directory masked documents are written to.
	// When empty, outputs are written next to each source document.
	OutputDir string

	// ArchiveDir is where processed source documents are moved.
	// When empty and KeepSource is false, processed sources are deleted.
	ArchiveDir string

	// KeepSource leaves processed source documents untouched.
	KeepSource bool

	// Overwrite allows replacing masked outputs left by an earlier run.
	// Without it a document whose output already exists fails and its
	// source is kept.
	Overwrite bool

	// Minio holds the optional S3-compatible output settings.
	// When Minio.Endpoint is set, masked output is uploaded instead of being
	// written to OutputDir.
	Minio MinioConfig

	// DBDir is the directory path for the SQLite audit database.
	// Defaults to XDG data directory (~/.local/share/docmask on Linux).
	DBDir string

	// SaveToDB indicates whether to record job outcomes in the audit database.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .docmask in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report; stdout when empty.
	ReportFile string

	// Targets is the list of documents or directories to process.
	Targets []string
}

// MinioConfig holds the S3-compatible storage settings for masked output.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// Enabled reports whether MinIO output is configured.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most pipeline defaults are non-zero. This also serves
// as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		UserAgent:       DefaultUserAgent,
		RequestTimeout:  DefaultRequestTimeout,
		WordLimit:       DefaultWordLimit,
		MaxConcurrency:  DefaultMaxConcurrency,
		PollInterval:    DefaultPollInterval,
		PollBackoff:     DefaultPollBackoff,
		MaxPollInterval: DefaultMaxPollInterval,
		GlobalTimeout:   DefaultGlobalTimeout,
		SaveToDB:        true,
	}
}

// EffectiveMaxWait returns the per-record wait budget, resolving the zero
// value to GlobalTimeout.
func (c *Config) EffectiveMaxWait() time.Duration {
	if c.MaxWait <= 0 {
		return c.GlobalTimeout
	}
	return c.MaxWait
}

// XDGDataDir returns the XDG data directory for docmask.
// On Linux: ~/.local/share/docmask
// On macOS: ~/Library/Application Support/docmask
// On Windows: %LOCALAPPDATA%\docmask
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docmask.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ValidatePipeline checks the pipeline tunables.
// The chunker and the poller call this indirectly: a non-positive word
// limit is the one configuration error the core itself can detect.
func (c *Config) ValidatePipeline() error {
	if c.WordLimit <= 0 {
		return ErrInvalidWordLimit
	}
	if c.MaxConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.PollBackoff < 1 {
		return ErrInvalidPollBackoff
	}
	if c.MaxPollInterval < c.PollInterval {
		return ErrInvalidMaxPollInterval
	}
	if c.GlobalTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxWait < 0 {
		return ErrInvalidMaxWait
	}
	return nil
}

// ValidateService checks the masking service connection settings.
func (c *Config) ValidateService() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.AuthKey == "" {
		return ErrMissingAuthKey
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}
	return nil
}

// Validate checks if the configuration is valid for a masking run.
// It returns the first error found.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast before any document is read or any request is
// sent. Returning the first error is enough because fixing one error often
// makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if err := c.ValidateService(); err != nil {
		return err
	}
	if err := c.ValidatePipeline(); err != nil {
		return err
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Minio.Enabled() && c.Minio.Bucket == "" {
		return ErrMissingBucket
	}
	return nil
}
