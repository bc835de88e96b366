package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/nao1215/docmask/internal/model"
)

// MaskedSuffix is appended to the file name of a document, extension
// included, to form the name of its masked output.
const MaskedSuffix = "_masked_output.txt"

// sniffSize is how much of a file is read for content detection.
// The docx matcher looks past the zip header at the first entry names.
const sniffSize = 8192

// Source reads a document as an ordered paragraph sequence.
type Source interface {
	ListParagraphs(ctx context.Context, document string) ([]model.Paragraph, error)
}

// Format is a supported document format.
type Format string

const (
	FormatDocx Format = "docx"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// extensionFormats maps file extensions to formats.
var extensionFormats = map[string]Format{
	".docx": FormatDocx,
	".html": FormatHTML,
	".htm":  FormatHTML,
	".txt":  FormatText,
	".text": FormatText,
	".md":   FormatText,
}

// AutoSource reads any supported format, choosing the reader per file.
type AutoSource struct {
	docx DocxSource
	html HTMLSource
	text TextSource
}

// NewAutoSource creates an AutoSource.
func NewAutoSource() *AutoSource {
	return &AutoSource{}
}

// ListParagraphs implements Source.
func (s *AutoSource) ListParagraphs(ctx context.Context, document string) ([]model.Paragraph, error) {
	format, err := DetectFormat(document)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatDocx:
		return s.docx.ListParagraphs(ctx, document)
	case FormatHTML:
		return s.html.ListParagraphs(ctx, document)
	default:
		return s.text.ListParagraphs(ctx, document)
	}
}

// DetectFormat determines the format of the file at path.
//
// Content wins over the extension: a .txt file that is really a zip is not
// read as text. Files the content matcher does not recognize are classified
// by extension, then by whether they look like text at all.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the user's target list
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return detect(buf[:n], filepath.Ext(path))
}

func detect(head []byte, ext string) (Format, error) {
	byExt, known := extensionFormats[strings.ToLower(ext)]

	kind, _ := filetype.Match(head) //nolint:errcheck // Match only fails on empty input, which is Unknown
	switch {
	case kind.Extension == "docx":
		return FormatDocx, nil
	case kind.Extension == "zip" && byExt == FormatDocx:
		return FormatDocx, nil
	case kind != filetype.Unknown:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, kind.Extension, kind.MIME.Value)
	}

	if byExt == FormatDocx {
		return "", fmt.Errorf("%w: %s is not a zip package", ErrUnsupportedFormat, ext)
	}
	if !looksLikeText(head) {
		return "", fmt.Errorf("%w: binary content", ErrUnsupportedFormat)
	}
	if known {
		return byExt, nil
	}
	if looksLikeHTML(head) {
		return FormatHTML, nil
	}
	if !known && ext != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return FormatText, nil
}

// looksLikeText reports whether head has no NUL bytes or stray control
// characters. UTF-16 text is recognized by its byte order mark.
func looksLikeText(head []byte) bool {
	if len(head) >= 2 && ((head[0] == 0xFF && head[1] == 0xFE) || (head[0] == 0xFE && head[1] == 0xFF)) {
		return true
	}
	for _, b := range head {
		if b == 0 {
			return false
		}
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			return false
		}
	}
	return true
}

func looksLikeHTML(head []byte) bool {
	s := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(string(head), "\ufeff")))
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html")
}

// Supported reports whether path has an extension docmask can read.
func Supported(path string) bool {
	_, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Enumerate lists the supported documents in dir, sorted by name.
// Hidden files and masked outputs of earlier runs are skipped.
func Enumerate(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var docs []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, MaskedSuffix) {
			continue
		}
		if Supported(name) {
			docs = append(docs, filepath.Join(dir, name))
		}
	}
	return docs, nil
}

// OutputName returns the masked output file name for a document.
// The source extension is kept so report.docx and report.txt in one
// directory get different outputs.
func OutputName(document string) string {
	return filepath.Base(document) + MaskedSuffix
}
