package report

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/docmask/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report for a finished job.
	// Returns the number of bytes written and any error encountered.
	Write(job *model.MaskJob) (int, error)

	// WriteSummary outputs a job summary, e.g. one loaded from the audit store.
	WriteSummary(summary *model.JobSummary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(job *model.MaskJob) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(job)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *model.JobSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// summaryOf returns the job summary, computing it for unfinished jobs.
func summaryOf(job *model.MaskJob) *model.JobSummary {
	if job.Summary != nil {
		return job.Summary
	}
	return model.NewJobSummary(job)
}

var titleCaser = cases.Title(language.English)

// stateLabel returns the display label of a state, e.g. "Timed Out".
func stateLabel(s model.State) string {
	return titleCaser.String(strings.ReplaceAll(s.String(), "_", " "))
}

// statusText describes the overall outcome of a job.
func statusText(s *model.JobSummary) string {
	switch {
	case s.Error != "":
		return "Error - " + s.Error
	case s.Degraded() > 0:
		return "Degraded - " + plural(s.Degraded(), "chunk") + " kept original text"
	default:
		return "Masked"
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
