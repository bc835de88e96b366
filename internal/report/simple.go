package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/nao1215/docmask/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: Colors come from fatih/color, which turns itself off
// when stdout is not a terminal. Tests and callers writing to files pass
// WithColor(false) so output stays plain regardless of the environment.
type SimpleWriter struct {
	baseWriter

	// verbose lists every fallback chunk instead of a count.
	verbose bool

	ok   *color.Color
	warn *color.Color
	bad  *color.Color
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every fallback chunk with its reason.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColor forces colored output on or off.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		for _, c := range []*color.Color{w.ok, w.warn, w.bad} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		ok:         color.New(color.FgGreen, color.Bold),
		warn:       color.New(color.FgYellow),
		bad:        color.New(color.FgRed, color.Bold),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the job report in human-readable format.
func (w *SimpleWriter) Write(job *model.MaskJob) (int, error) {
	return w.WriteSummary(summaryOf(job))
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(s *model.JobSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, s)
	w.writeCounts(&sb, s)
	w.writeFallbacks(&sb, s)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.JobSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          DOCMASK REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Document:   %s\n", s.DocumentID)
	fmt.Fprintf(sb, "Job ID:     %s\n", s.JobID)
	fmt.Fprintf(sb, "Started:    %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:   %s\n", s.Duration.Round(time.Millisecond))

	status := statusText(s)
	switch {
	case s.Error != "":
		status = w.bad.Sprint(status)
	case s.Degraded() > 0:
		status = w.warn.Sprint(status)
	default:
		status = w.ok.Sprint(status)
	}
	fmt.Fprintf(sb, "Status:     %s\n\n", status)
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *model.JobSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CHUNK SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Paragraphs: %d\n", s.Paragraphs)
	fmt.Fprintf(sb, "  Words:      %d\n", s.Words)
	fmt.Fprintf(sb, "  Chunks:     %d (%d blank)\n", s.Chunks, s.Blank)
	fmt.Fprintf(sb, "  %-11s %d\n", stateLabel(model.StateCompleted)+":", s.Completed)
	fmt.Fprintf(sb, "  %-11s %d\n", stateLabel(model.StateFailed)+":", s.Failed)
	fmt.Fprintf(sb, "  %-11s %d\n", stateLabel(model.StateTimedOut)+":", s.TimedOut)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFallbacks(sb *strings.Builder, s *model.JobSummary) {
	if len(s.Fallbacks) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FALLBACKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !w.verbose {
		fmt.Fprintf(sb, "  %s kept original text (use --verbose to list them)\n\n", plural(len(s.Fallbacks), "chunk"))
		return
	}

	for _, f := range s.Fallbacks {
		line := fmt.Sprintf("  [!] chunk %d (paragraph %d): %s", f.Sequence, f.ParagraphIndex, stateLabel(f.State))
		if f.Reason != "" {
			line += " - " + f.Reason
		}
		sb.WriteString(w.warn.Sprint(line))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
