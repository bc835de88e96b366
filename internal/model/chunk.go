package model

import "strings"

// Paragraph is one ordered text unit of a source document.
// Paragraphs are immutable once read; Text may be empty for blank lines.
type Paragraph struct {
	// Index is the position of the paragraph in the document (0-based).
	Index int `json:"index"`

	// Text is the raw paragraph text.
	Text string `json:"text"`
}

// IsBlank reports whether the paragraph carries no words.
func (p Paragraph) IsBlank() bool {
	return strings.TrimSpace(p.Text) == ""
}

// NewParagraphs builds an indexed paragraph sequence from plain strings.
func NewParagraphs(texts ...string) []Paragraph {
	paragraphs := make([]Paragraph, len(texts))
	for i, text := range texts {
		paragraphs[i] = Paragraph{Index: i, Text: text}
	}
	return paragraphs
}

// Chunk is a contiguous run of words from a single paragraph that is sent to
// the masking service as one request.
//
// Design decision: A chunk never spans two paragraphs. Masked text returned by
// the service cannot be split back along paragraph lines reliably, so keeping
// the source paragraph per chunk is what makes reconstruction exact. The
// paragraph-break marker (EndsParagraph) travels with the last chunk of every
// paragraph, including the zero-length chunk of a blank paragraph.
type Chunk struct {
	// Sequence is the global ordering key (0..n-1, contiguous).
	Sequence int `json:"sequence"`

	// ParagraphIndex is the index of the source paragraph.
	ParagraphIndex int `json:"paragraph_index"`

	// Part is the position of this chunk within its paragraph (0-based).
	Part int `json:"part"`

	// EndsParagraph marks the paragraph break after this chunk.
	EndsParagraph bool `json:"ends_paragraph"`

	// Text is the chunk's words joined by single spaces.
	Text string `json:"text"`

	// Words is the number of words in Text.
	Words int `json:"words"`
}

// IsEmpty reports whether the chunk is a zero-length paragraph-break marker.
func (c Chunk) IsEmpty() bool {
	return c.Words == 0
}
