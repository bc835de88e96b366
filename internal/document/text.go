package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/nao1215/docmask/internal/model"
)

// TextSource reads plain text files, one paragraph per line.
// UTF-8 and UTF-16 files with a byte order mark are decoded; files without
// one are read as UTF-8.
type TextSource struct{}

// ListParagraphs implements Source.
func (TextSource) ListParagraphs(ctx context.Context, document string) ([]model.Paragraph, error) {
	f, err := os.Open(document) //nolint:gosec // Path comes from the user's target list
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", document, err)
	}
	defer f.Close()
	return ParseText(ctx, f)
}

// ParseText reads paragraphs from plain text.
// A trailing newline does not produce an extra empty paragraph.
func ParseText(ctx context.Context, r io.Reader) ([]model.Paragraph, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	paragraphs := make([]model.Paragraph, len(lines))
	for i, line := range lines {
		paragraphs[i] = model.Paragraph{Index: i, Text: line}
	}
	return paragraphs, nil
}
