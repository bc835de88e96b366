package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docmask/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for attaching to tickets and review threads.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the job report in Markdown format.
func (w *MarkdownWriter) Write(job *model.MaskJob) (int, error) {
	return w.WriteSummary(summaryOf(job))
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(s *model.JobSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeCounts(md, s)
	w.writeFallbacks(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.JobSummary) {
	md.H1("docmask Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Document", "`" + s.DocumentID + "`"},
			{"Job ID", "`" + s.JobID + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration.String()},
			{"Status", w.statusBadge(s)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusBadge(s *model.JobSummary) string {
	switch {
	case s.Error != "":
		return "❌ " + statusText(s)
	case s.Degraded() > 0:
		return "⚠️ " + statusText(s)
	default:
		return "✅ " + statusText(s)
	}
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, s *model.JobSummary) {
	md.H2("Chunk Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Measure", "Count"},
		Rows: [][]string{
			{"Paragraphs", strconv.Itoa(s.Paragraphs)},
			{"Words", strconv.Itoa(s.Words)},
			{"Chunks", strconv.Itoa(s.Chunks)},
			{"Blank", strconv.Itoa(s.Blank)},
			{"🟢 " + stateLabel(model.StateCompleted), strconv.Itoa(s.Completed)},
			{"🔴 " + stateLabel(model.StateFailed), strconv.Itoa(s.Failed)},
			{"🟡 " + stateLabel(model.StateTimedOut), strconv.Itoa(s.TimedOut)},
		},
	})
	md.PlainText("")

	if s.Completed+s.Degraded() > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of chunk outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.JobSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Chunk Outcomes"),
		piechart.WithShowData(true),
	)

	counts := []struct {
		state model.State
		n     int
	}{
		{model.StateCompleted, s.Completed},
		{model.StateFailed, s.Failed},
		{model.StateTimedOut, s.TimedOut},
	}
	for _, c := range counts {
		if c.n > 0 {
			chart.LabelAndIntValue(stateLabel(c.state), uint64(c.n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.JobSummary) {
	switch {
	case s.Error != "":
		md.Cautionf("The job stopped before producing output: %s", s.Error)
	case s.Failed > 0:
		md.Warningf("%s rejected by the masking service kept their original text.", plural(s.Failed, "chunk"))
	case s.TimedOut > 0:
		md.Importantf("%s did not finish before the deadline and kept their original text.", plural(s.TimedOut, "chunk"))
	default:
		md.Tip("Every chunk was masked.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFallbacks(md *markdown.Markdown, s *model.JobSummary) {
	if len(s.Fallbacks) == 0 {
		return
	}

	md.H2("Fallbacks")
	md.PlainText("")

	rows := make([][]string, len(s.Fallbacks))
	for i, f := range s.Fallbacks {
		reason := f.Reason
		if reason == "" {
			reason = "-"
		}
		rows[i] = []string{
			strconv.Itoa(f.Sequence),
			strconv.Itoa(f.ParagraphIndex),
			stateLabel(f.State),
			truncateString(reason, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Chunk", "Paragraph", "State", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docmask](https://github.com/nao1215/docmask)*")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
