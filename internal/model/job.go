package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MaskJob is the per-document unit of work.
// Pipeline steps receive the job, read what earlier steps produced and add
// their own output to it.
//
// Design decision: We use a single struct that accumulates state across
// steps (like a report being filled in) rather than passing values between
// steps, so any step failure leaves a job that still describes how far the
// document got. Document text fields are excluded from JSON so a serialized
// job can be stored for audit without carrying unmasked content.
type MaskJob struct {
	// ID uniquely identifies this run (ULID, sortable by creation time).
	ID string `json:"id"`

	// DocumentID identifies the source document (usually its file name).
	DocumentID string `json:"document_id"`

	// StartedAt is when the job was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step returned.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Paragraphs is the input paragraph sequence.
	Paragraphs []Paragraph `json:"-"`

	// Chunks is the chunker output, ordered by sequence number.
	Chunks []Chunk `json:"-"`

	// Records holds one tracking record per chunk, indexed by sequence number.
	Records []*TrackingRecord `json:"records,omitempty"`

	// Results holds one resolved result per chunk, indexed by sequence number.
	Results []MaskedResult `json:"results,omitempty"`

	// Output is the assembled final text.
	Output string `json:"-"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the fatal error that stopped the job, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Summary is filled in once the job finishes.
	Summary *JobSummary `json:"summary,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newJobID returns a new monotonic ULID string.
// ulid.MonotonicEntropy is not safe for concurrent use, hence the mutex.
func newJobID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewMaskJob creates a job for the given document and paragraphs.
func NewMaskJob(documentID string, paragraphs []Paragraph) *MaskJob {
	now := time.Now()
	return &MaskJob{
		ID:         newJobID(now),
		DocumentID: documentID,
		StartedAt:  now,
		Paragraphs: paragraphs,
	}
}

// Fail records a fatal error on the job.
func (j *MaskJob) Fail(err error) {
	j.Error = err
	if err != nil {
		j.ErrorMessage = err.Error()
	}
}

// Finish stamps the job as finished and computes its summary.
func (j *MaskJob) Finish() {
	j.FinishedAt = time.Now()
	j.Summary = NewJobSummary(j)
}

// Duration returns how long the job ran; zero while it is still running.
func (j *MaskJob) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
