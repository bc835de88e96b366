package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/docmask/internal/model"
)

const (
	// docxMainPart is the main document part of a WordprocessingML package.
	docxMainPart = "word/document.xml"

	// wordNamespace is the WordprocessingML main namespace.
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	// maxDocxPartSize bounds the decompressed size of the main part.
	maxDocxPartSize = 64 * 1024 * 1024
)

// DocxSource reads Word .docx files. Every <w:p> element, including those
// in tables, becomes one paragraph; empty ones are kept.
type DocxSource struct{}

// ListParagraphs implements Source.
func (DocxSource) ListParagraphs(ctx context.Context, document string) ([]model.Paragraph, error) {
	zr, err := zip.OpenReader(document)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx %s: %w", document, err)
	}
	defer zr.Close()
	return readDocx(ctx, &zr.Reader)
}

// ParseDocx reads paragraphs from a .docx package held in r.
func ParseDocx(ctx context.Context, r io.ReaderAt, size int64) ([]model.Paragraph, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	return readDocx(ctx, zr)
}

func readDocx(ctx context.Context, zr *zip.Reader) ([]model.Paragraph, error) {
	for _, f := range zr.File {
		if f.Name != docxMainPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", docxMainPart, err)
		}
		defer rc.Close()
		return parseWordXML(ctx, io.LimitReader(rc, maxDocxPartSize))
	}
	return nil, ErrInvalidDocx
}

// parseWordXML walks the WordprocessingML token stream.
// Text comes from <w:t>; <w:tab> becomes a tab and <w:br>/<w:cr> a space.
// Paragraphs nested in text boxes are emitted when they close, before the
// paragraph that contains them.
func parseWordXML(ctx context.Context, r io.Reader) ([]model.Paragraph, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []model.Paragraph
		open       []*strings.Builder
		inText     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", docxMainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				if len(open) > 0 {
					open[len(open)-1].WriteByte('\t')
				}
			case "br", "cr":
				if len(open) > 0 {
					open[len(open)-1].WriteByte(' ')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(open) == 0 {
					continue
				}
				b := open[len(open)-1]
				open = open[:len(open)-1]
				paragraphs = append(paragraphs, model.Paragraph{
					Index: len(paragraphs),
					Text:  b.String(),
				})
			}
		case xml.CharData:
			if inText && len(open) > 0 {
				open[len(open)-1].Write(t)
			}
		}
	}
	return paragraphs, nil
}
