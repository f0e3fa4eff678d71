package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Goldmark renders CommonMark with GitHub extensions.
type Goldmark struct {
	opts options
	md   goldmark.Markdown
}

// NewGoldmark returns the CommonMark engine.
func NewGoldmark(opts ...Option) *Goldmark {
	return &Goldmark{
		opts: newOptions(opts),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render converts src to sanitized HTML.
func (e *Goldmark) Render(src string) (Document, error) {
	source := []byte(src)
	doc := e.md.Parser().Parse(text.NewReader(source))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			img.Destination = []byte(e.opts.images.Rewrite(string(img.Destination)))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("walk markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := e.md.Renderer().Render(&buf, source, doc); err != nil {
		return Document{}, fmt.Errorf("render markdown: %w", err)
	}
	out := e.opts.policy.Sanitize(buf.String())
	return Document{HTML: out, TOC: TOC(out)}, nil
}
