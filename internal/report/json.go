package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/docmask/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Document text never appears in the output: MaskJob and its records
// exclude text fields from JSON.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the job in JSON format, including per-chunk records.
func (w *JSONWriter) Write(job *model.MaskJob) (int, error) {
	if job.Summary == nil {
		job.Summary = model.NewJobSummary(job)
	}
	return w.writeJSON(job)
}

// WriteSummary outputs only the summary in JSON format.
func (w *JSONWriter) WriteSummary(summary *model.JobSummary) (int, error) {
	return w.writeJSON(summary)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a job with the version of the tool that produced it.
type JSONReport struct {
	// Version is the docmask version that generated this report.
	Version string `json:"version"`

	// Job is the full mask job.
	Job *model.MaskJob `json:"job"`
}

// FullJSONWriter outputs jobs wrapped with version metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the docmask version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the job wrapped with metadata.
func (w *FullJSONWriter) Write(job *model.MaskJob) (int, error) {
	if job.Summary == nil {
		job.Summary = model.NewJobSummary(job)
	}
	return w.writeJSON(&JSONReport{Version: w.version, Job: job})
}
