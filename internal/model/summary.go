package model

import "time"

// JobSummary is a condensed view of a finished MaskJob.
// It is what reports render and what the audit store indexes.
type JobSummary struct {
	// JobID is the MaskJob ID.
	JobID string `json:"job_id"`

	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`

	// StartedAt is when the job began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock run time.
	Duration time.Duration `json:"duration"`

	// Paragraphs is the number of input paragraphs.
	Paragraphs int `json:"paragraphs"`

	// Chunks is the number of chunks, including blank-paragraph markers.
	Chunks int `json:"chunks"`

	// Words is the total word count across all chunks.
	Words int `json:"words"`

	// Blank is the number of zero-length chunks (never sent to the service).
	Blank int `json:"blank"`

	// Completed is the number of non-blank chunks that were masked.
	Completed int `json:"completed"`

	// Failed is the number of chunks rejected by the service or never submitted.
	Failed int `json:"failed"`

	// TimedOut is the number of chunks still pending at the deadline.
	TimedOut int `json:"timed_out"`

	// Error is the fatal error message, empty on success.
	Error string `json:"error,omitempty"`

	// Fallbacks lists every chunk whose original text was kept.
	Fallbacks []Fallback `json:"fallbacks,omitempty"`
}

// Fallback describes one chunk that was not masked.
type Fallback struct {
	// Sequence is the chunk sequence number.
	Sequence int `json:"sequence"`

	// ParagraphIndex is the source paragraph of the chunk.
	ParagraphIndex int `json:"paragraph_index"`

	// State is the terminal state of the chunk.
	State State `json:"state"`

	// Reason is the recorded cause.
	Reason string `json:"reason,omitempty"`
}

// NewJobSummary builds a summary from a job.
// It tolerates partially filled jobs (e.g. a job that failed in chunking).
func NewJobSummary(job *MaskJob) *JobSummary {
	s := &JobSummary{
		JobID:      job.ID,
		DocumentID: job.DocumentID,
		StartedAt:  job.StartedAt,
		Duration:   job.Duration(),
		Paragraphs: len(job.Paragraphs),
		Chunks:     len(job.Chunks),
		Error:      job.ErrorMessage,
	}

	for _, c := range job.Chunks {
		s.Words += c.Words
		if c.IsEmpty() {
			s.Blank++
		}
	}

	for _, r := range job.Results {
		var chunk Chunk
		if r.Sequence >= 0 && r.Sequence < len(job.Chunks) {
			chunk = job.Chunks[r.Sequence]
		}
		switch r.State {
		case StateCompleted:
			if !chunk.IsEmpty() {
				s.Completed++
			}
			continue
		case StateFailed:
			s.Failed++
		case StateTimedOut:
			s.TimedOut++
		}
		s.Fallbacks = append(s.Fallbacks, Fallback{
			Sequence:       r.Sequence,
			ParagraphIndex: chunk.ParagraphIndex,
			State:          r.State,
			Reason:         r.Reason,
		})
	}

	return s
}

// Degraded is the number of chunks that kept their original text.
func (s *JobSummary) Degraded() int {
	return s.Failed + s.TimedOut
}

// Masked reports whether every non-blank chunk was masked.
func (s *JobSummary) Masked() bool {
	return s.Error == "" && s.Degraded() == 0
}
