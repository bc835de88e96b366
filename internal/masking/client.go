package masking

import "context"

// Status is the resolution state the service reports for a tracking id.
type Status int

const (
	// StatusPending means the service has not finished the request yet.
	StatusPending Status = iota

	// StatusCompleted means masked text is available.
	StatusCompleted

	// StatusFailed means the service rejected or gave up on the request.
	StatusFailed
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PollResult is the answer to one poll.
type PollResult struct {
	// Status is the reported resolution state.
	Status Status

	// MaskedText is set when Status is StatusCompleted.
	MaskedText string

	// Reason explains a StatusFailed result.
	Reason string
}

// Client is the masking service as seen by the pipeline.
//
// Implementations must be safe for concurrent use: the dispatcher calls
// Submit and the poller calls Poll from several goroutines at once.
type Client interface {
	// Submit sends text for masking and returns the tracking id.
	// It performs exactly one call to the service and never retries.
	// Errors match ErrSubmission.
	Submit(ctx context.Context, text string) (string, error)

	// Poll queries the state of a submitted request.
	// Retryable failures match ErrTransientPoll; a rejection by the
	// service is reported as StatusFailed with a nil error.
	Poll(ctx context.Context, trackingID string) (PollResult, error)
}

// Validator is implemented by clients that can check their credentials and
// endpoint before any document is processed.
type Validator interface {
	Validate(ctx context.Context) error
}
