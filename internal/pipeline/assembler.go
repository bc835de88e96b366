package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/docmask/internal/model"
)

// lineBreaks flattens line breaks inside masked text so a chunk can never
// add a paragraph to the output.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// BuildResults converts terminal tracking records into masked results.
// records must hold exactly one terminal record per chunk, indexed by
// sequence number. The fallback text of every result is its chunk's text.
func BuildResults(chunks []model.Chunk, records []*model.TrackingRecord) ([]model.MaskedResult, error) {
	if len(records) != len(chunks) {
		return nil, fmt.Errorf("%w: %d records for %d chunks", ErrSequenceInvalid, len(records), len(chunks))
	}

	results := make([]model.MaskedResult, len(chunks))
	for i, c := range chunks {
		r := records[i]
		if r == nil || r.Sequence != c.Sequence || c.Sequence != i {
			return nil, fmt.Errorf("%w: no record for sequence %d", ErrSequenceInvalid, i)
		}
		if !r.State.IsTerminal() {
			return nil, fmt.Errorf("%w: sequence %d is %s", ErrUnresolved, i, r.State)
		}
		results[i] = model.MaskedResult{
			Sequence:     c.Sequence,
			State:        r.State,
			MaskedText:   r.MaskedText,
			FallbackText: c.Text,
			Reason:       r.Reason,
		}
	}
	return results, nil
}

// Assemble rebuilds the document text from per-chunk results.
//
// results may arrive in any order but must contain exactly one entry per
// chunk sequence number. Chunks of one paragraph are joined with a single
// space, skipping empty parts; paragraphs are joined with "\n", so the
// output has as many lines as the input had paragraphs, blank ones
// included. Completed chunks contribute their trimmed masked text, every
// other chunk its original text.
func Assemble(chunks []model.Chunk, results []model.MaskedResult) (string, error) {
	if len(results) != len(chunks) {
		return "", fmt.Errorf("%w: %d results for %d chunks", ErrSequenceInvalid, len(results), len(chunks))
	}

	sorted := slices.Clone(results)
	slices.SortFunc(sorted, func(a, b model.MaskedResult) int {
		return a.Sequence - b.Sequence
	})
	for i := range sorted {
		if sorted[i].Sequence != i || chunks[i].Sequence != i {
			return "", fmt.Errorf("%w: missing or duplicate sequence %d", ErrSequenceInvalid, i)
		}
	}

	var (
		b     strings.Builder
		parts []string
		lines int
	)
	for i, c := range chunks {
		if text := lineBreaks.Replace(sorted[i].Text()); text != "" {
			parts = append(parts, text)
		}
		if !c.EndsParagraph && i < len(chunks)-1 {
			continue
		}
		if lines > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(parts, " "))
		parts = parts[:0]
		lines++
	}
	return b.String(), nil
}
