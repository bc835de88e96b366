package chunker

import (
	"fmt"
	"strings"

	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/model"
)

// Chunk splits paragraphs into chunks of at most wordLimit words.
//
// A paragraph with at most wordLimit words becomes exactly one chunk; a
// longer one is cut into consecutive wordLimit-sized chunks, the last one
// possibly shorter. Blank paragraphs become a single zero-length chunk so
// the paragraph count survives reassembly. Sequence numbers are assigned in
// output order starting at 0.
//
// A non-positive wordLimit returns an error matching config.ErrInvalidWordLimit.
func Chunk(paragraphs []model.Paragraph, wordLimit int) ([]model.Chunk, error) {
	if wordLimit <= 0 {
		return nil, fmt.Errorf("%w: got %d", config.ErrInvalidWordLimit, wordLimit)
	}

	chunks := make([]model.Chunk, 0, len(paragraphs))
	for _, p := range paragraphs {
		words := strings.Fields(p.Text)
		if len(words) == 0 {
			chunks = append(chunks, model.Chunk{
				Sequence:       len(chunks),
				ParagraphIndex: p.Index,
				EndsParagraph:  true,
			})
			continue
		}

		for part, start := 0, 0; start < len(words); part, start = part+1, start+wordLimit {
			end := min(start+wordLimit, len(words))
			chunks = append(chunks, model.Chunk{
				Sequence:       len(chunks),
				ParagraphIndex: p.Index,
				Part:           part,
				EndsParagraph:  end == len(words),
				Text:           strings.Join(words[start:end], " "),
				Words:          end - start,
			})
		}
	}
	return chunks, nil
}

// Stats summarizes a chunk sequence for logging.
type Stats struct {
	Paragraphs int
	Chunks     int
	Blank      int
	Words      int
	// Split is the number of paragraphs that needed more than one chunk.
	Split int
}

// NewStats computes Stats over chunks produced by Chunk.
func NewStats(chunks []model.Chunk) Stats {
	s := Stats{Chunks: len(chunks)}
	for _, c := range chunks {
		s.Words += c.Words
		if c.IsEmpty() {
			s.Blank++
		}
		if c.EndsParagraph {
			s.Paragraphs++
			if c.Part > 0 {
				s.Split++
			}
		}
	}
	return s
}
