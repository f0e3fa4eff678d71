package markdown

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// TOCDepth is the deepest heading level listed in a table of contents.
const TOCDepth = 3

// Entry is one table of contents line.
type Entry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Slugger hands out unique heading anchors.
type Slugger struct {
	seen  map[string]int
	count int
}

// NewSlugger returns an empty slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: map[string]int{}}
}

// Slug returns the anchor for heading text. Letters and digits are
// lower-cased and kept, other runs become a single "-". Empty slugs become
// "h" followed by the heading's position. Repeats get "-2", "-3" and so on.
func (s *Slugger) Slug(text string) string {
	s.count++
	slug := slugify(text)
	if slug == "" {
		slug = "h" + strconv.Itoa(s.count)
	}
	n := s.seen[slug]
	s.seen[slug] = n + 1
	if n == 0 {
		return slug
	}
	for {
		n++
		candidate := slug + "-" + strconv.Itoa(n)
		if s.seen[candidate] == 0 {
			s.seen[candidate] = 1
			s.seen[slug] = n
			return candidate
		}
	}
}

func slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// TOC extracts h1 to h3 headings carrying an id from rendered HTML.
func TOC(rendered string) []Entry {
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return nil
	}
	var entries []Entry
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 && level <= TOCDepth {
				if id := attr(n, "id"); id != "" {
					entries = append(entries, Entry{Level: level, Text: nodeText(n), ID: id})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return entries
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

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
	return strings.Join(strings.Fields(b.String()), " ")
}
