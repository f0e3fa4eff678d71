package markdown

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/nao1215/showcase/internal/config"
)

// Document is a rendered body.
type Document struct {
	// HTML is the sanitized markup.
	HTML string `json:"html"`
	// TOC lists the h1 to h3 headings.
	TOC []Entry `json:"toc,omitempty"`
}

// Engine renders markdown source.
type Engine interface {
	Render(src string) (Document, error)
}

// Option configures an engine.
type Option func(*options)

type options struct {
	images ImageRewriter
	policy *bluemonday.Policy
}

// WithImageRewriter routes image URLs through r.
func WithImageRewriter(r ImageRewriter) Option {
	return func(o *options) { o.images = r }
}

// WithPolicy replaces the sanitizer.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(o *options) { o.policy = p }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = NewPolicy()
	}
	return o
}

// New returns the engine cfg selects. The image rewriter is taken from cfg.
func New(cfg config.MarkdownConfig, opts ...Option) (Engine, error) {
	opts = append([]Option{WithImageRewriter(NewImageRewriter(cfg))}, opts...)
	switch cfg.Engine {
	case "", config.EngineBuiltin:
		return NewBuiltin(opts...), nil
	case config.EngineGoldmark:
		return NewGoldmark(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownEngine, cfg.Engine)
	}
}

// Builtin is the tagged-line engine.
type Builtin struct {
	opts options
}

// NewBuiltin returns the tagged-line engine.
func NewBuiltin(opts ...Option) *Builtin {
	return &Builtin{opts: newOptions(opts)}
}

// Render converts src to sanitized HTML. It never fails.
func (e *Builtin) Render(src string) (Document, error) {
	raw := e.HTML(Tokenize(src))
	out := e.opts.policy.Sanitize(raw)
	return Document{HTML: out, TOC: TOC(out)}, nil
}

// HTML renders blocks without sanitizing them.
func (e *Builtin) HTML(blocks []Block) string {
	var b strings.Builder
	slugs := NewSlugger()
	for _, blk := range blocks {
		switch blk.Kind {
		case Heading:
			content := inline(blk.Lines[0], e.opts.images)
			tag := "h" + strconv.Itoa(blk.Level)
			id := slugs.Slug(html.UnescapeString(stripTags(content)))
			b.WriteString("<" + tag + ` id="` + id + `">` + content + "</" + tag + ">\n")
		case Quote:
			b.WriteString("<blockquote>")
			for i, line := range blk.Lines {
				if i > 0 {
					b.WriteString("<br>")
				}
				b.WriteString(inline(line, e.opts.images))
			}
			b.WriteString("</blockquote>\n")
		case Code:
			b.WriteString("<pre><code")
			if blk.Lang != "" {
				b.WriteString(` class="language-` + html.EscapeString(strings.Fields(blk.Lang)[0]) + `"`)
			}
			b.WriteString(">")
			b.WriteString(html.EscapeString(strings.Join(blk.Lines, "\n")))
			b.WriteString("</code></pre>\n")
		case List:
			tag := "ul"
			if blk.Ordered {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for _, item := range blk.Lines {
				b.WriteString("<li>" + inline(item, e.opts.images) + "</li>")
			}
			b.WriteString("</" + tag + ">\n")
		case Rule:
			b.WriteString("<hr>\n")
		default:
			b.WriteString("<p>")
			for i, line := range blk.Lines {
				if i > 0 {
					b.WriteString("<br>\n")
				}
				b.WriteString(inline(line, e.opts.images))
			}
			b.WriteString("</p>\n")
		}
	}
	return b.String()
}

// stripTags drops markup from rendered inline HTML.
func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return b.String()
}
