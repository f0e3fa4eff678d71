package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts text and references from HTML content.
type Parser struct {
	// baseURL resolves relative links. Nil keeps links as written.
	baseURL *url.URL
}

// ParseResult holds what Parser found in a document.
type ParseResult struct {
	// Title is the <title> text, or the first <h1> when there is no title.
	Title string

	// Text is the visible text with whitespace collapsed.
	Text string

	// Links are resolved href targets of <a> elements, deduplicated.
	Links []string

	// Images are resolved src values of <img> elements, deduplicated.
	Images []string
}

// NewParser returns a parser resolving relative links against baseURL.
// An empty baseURL keeps links as written.
func NewParser(baseURL string) (*Parser, error) {
	if baseURL == "" {
		return &Parser{}, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// skippedText lists elements whose text is not shown to readers.
var skippedText = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Parse walks the document once and collects text, links and images.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:  make([]string, 0),
		Images: make([]string, 0),
	}
	seen := make(map[string]bool)
	var text strings.Builder
	var firstH1 string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedText[n.Data] {
				return
			}
			switch n.Data {
			case "title":
				if result.Title == "" {
					result.Title = strings.TrimSpace(nodeText(n))
				}
				return
			case "h1":
				if firstH1 == "" {
					firstH1 = strings.TrimSpace(nodeText(n))
				}
			case "a":
				if href := p.resolveURL(getAttr(n, "href")); href != "" && !seen["a:"+href] {
					seen["a:"+href] = true
					result.Links = append(result.Links, href)
				}
			case "img":
				if src := p.resolveURL(getAttr(n, "src")); src != "" && !seen["img:"+src] {
					seen["img:"+src] = true
					result.Images = append(result.Images, src)
				}
			case "br", "p", "div", "li", "tr", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
				text.WriteByte(' ')
			}
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if result.Title == "" {
		result.Title = firstH1
	}
	result.Text = strings.Join(strings.Fields(text.String()), " ")
	return result, nil
}

// PlainText returns the visible text of s. Strings without markup are
// returned with whitespace collapsed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	p := &Parser{}
	result, err := p.Parse(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return result.Text
}

// nodeText concatenates the text below n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// resolveURL resolves href against the base URL and drops targets that
// cannot be requested.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if p.baseURL == nil {
		return u.String()
	}
	return p.baseURL.ResolveReference(u).String()
}

// getAttr returns the value of attribute key on n.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
