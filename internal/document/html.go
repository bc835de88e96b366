package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/docmask/internal/model"
)

// blockElements become one paragraph each.
var blockElements = map[string]bool{
	"p": true, "li": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"td": true, "th": true, "dt": true, "dd": true,
	"caption": true, "figcaption": true, "address": true,
}

// skippedElements carry no document text.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "svg": true,
}

// HTMLSource reads HTML documents.
//
// Design decision: We use golang.org/x/net/html rather than regular
// expressions because real documents exported from editors and wikis are
// rarely well-formed, and the parser repairs them the way browsers do.
// Whitespace-only blocks are dropped: blank lines in HTML are layout, not
// content.
type HTMLSource struct{}

// ListParagraphs implements Source.
func (HTMLSource) ListParagraphs(ctx context.Context, document string) ([]model.Paragraph, error) {
	f, err := os.Open(document) //nolint:gosec // Path comes from the user's target list
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", document, err)
	}
	defer f.Close()
	return ParseHTML(ctx, f)
}

// ParseHTML reads paragraphs from an HTML document.
func ParseHTML(ctx context.Context, r io.Reader) ([]model.Paragraph, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &htmlWalker{}
	w.container(root)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.paragraphs, nil
}

type htmlWalker struct {
	paragraphs []model.Paragraph
}

// container walks a node whose children may mix block and inline content.
// Runs of inline content between blocks form their own paragraph.
func (w *htmlWalker) container(n *html.Node) {
	var inline strings.Builder
	flush := func() {
		w.emit(inline.String())
		inline.Reset()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			if c.Type == html.TextNode {
				inline.WriteString(c.Data)
			}
			continue
		}
		switch {
		case skippedElements[c.Data]:
		case blockElements[c.Data]:
			flush()
			w.emit(textOf(c))
		case c.Data == "br" || c.Data == "hr":
			flush()
		case containsBlock(c):
			flush()
			w.container(c)
		default:
			inline.WriteString(textOf(c))
		}
	}
	flush()
}

func (w *htmlWalker) emit(text string) {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return
	}
	w.paragraphs = append(w.paragraphs, model.Paragraph{Index: len(w.paragraphs), Text: normalized})
}

// textOf returns the text content of n, with <br> as a space.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "br" {
				b.WriteByte(' ')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return b.String()
}

func containsBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skippedElements[c.Data] {
			continue
		}
		if blockElements[c.Data] || c.Data == "br" || c.Data == "hr" || containsBlock(c) {
			return true
		}
	}
	return false
}
