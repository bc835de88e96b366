package config

import "errors"

// Configuration validation errors.
// These errors are returned by the Validate methods and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no document or directory is specified.
	ErrNoTarget = errors.New("no target specified: provide a document or a directory")

	// ErrInvalidWordLimit is returned when the chunk word limit is not positive.
	// The chunker returns it as well, so it is the error callers see for a
	// bad limit no matter where it was detected.
	ErrInvalidWordLimit = errors.New("invalid word limit: must be positive")

	// ErrInvalidConcurrency is returned when max concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid max concurrency: must be positive")

	// ErrInvalidPollInterval is returned when the poll interval is not positive.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidPollBackoff is returned when the backoff factor is below 1.
	// A factor below 1 would shrink the interval towards a busy loop.
	ErrInvalidPollBackoff = errors.New("invalid poll backoff: must be at least 1")

	// ErrInvalidMaxPollInterval is returned when the interval cap is below the
	// initial interval.
	ErrInvalidMaxPollInterval = errors.New("invalid max poll interval: must not be shorter than the poll interval")

	// ErrInvalidTimeout is returned when the global timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid global timeout: must be positive")

	// ErrInvalidMaxWait is returned when the per-record wait budget is negative.
	// Use 0 to fall back to the global timeout.
	ErrInvalidMaxWait = errors.New("invalid max wait: must be non-negative")

	// ErrInvalidRequestTimeout is returned when the HTTP request timeout is not positive.
	ErrInvalidRequestTimeout = errors.New("invalid request timeout: must be positive")

	// ErrMissingBaseURL is returned when no masking service URL is configured.
	ErrMissingBaseURL = errors.New("masking service base URL is not configured: set masking.base_url in .docmask or use --base-url")

	// ErrMissingAuthKey is returned when no masking service credential is configured.
	ErrMissingAuthKey = errors.New("masking service auth key is not configured: set " + AuthKeyEnv + " or masking.auth_key in .docmask")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrMissingBucket is returned when MinIO output is enabled without a bucket.
	ErrMissingBucket = errors.New("minio output requires a bucket name")
)
