package markdown

import (
	"regexp"
	"strings"
)

// Kind identifies a block.
type Kind int

const (
	// Paragraph is a run of plain lines.
	Paragraph Kind = iota
	// Heading is an ATX heading, level 1 to 6.
	Heading
	// Quote is a run of "> " lines.
	Quote
	// Code is a fenced code block.
	Code
	// List is a run of list items of one kind.
	List
	// Rule is a thematic break.
	Rule
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case Quote:
		return "quote"
	case Code:
		return "code"
	case List:
		return "list"
	case Rule:
		return "rule"
	default:
		return "unknown"
	}
}

// Block is one tokenized block.
type Block struct {
	Kind Kind
	// Level is the heading level.
	Level int
	// Lang is the info string of a code fence.
	Lang string
	// Ordered marks a numbered list.
	Ordered bool
	// Lines holds the paragraph lines, the non-blank quote lines, the raw
	// code lines or the list item texts.
	Lines []string
}

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})(?:\s+(.*?))?(?:\s+#+)?\s*$`)
	quoteRe     = regexp.MustCompile(`^\s*>\s?(.*)$`)
	unorderedRe = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	orderedRe   = regexp.MustCompile(`^\s*\d{1,9}[.)]\s+(.*)$`)
)

// Tokenize splits src into blocks.
func Tokenize(src string) []Block {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	lines := strings.Split(src, "\n")

	var blocks []Block
	var para []string
	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: Paragraph, Lines: para})
			para = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()

		case strings.HasPrefix(trimmed, "```"):
			flush()
			b := Block{Kind: Code, Lang: strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))}
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
					break
				}
				b.Lines = append(b.Lines, lines[i])
			}
			blocks = append(blocks, b)

		case isRule(trimmed):
			flush()
			blocks = append(blocks, Block{Kind: Rule})

		case headingRe.MatchString(trimmed):
			flush()
			m := headingRe.FindStringSubmatch(trimmed)
			blocks = append(blocks, Block{Kind: Heading, Level: len(m[1]), Lines: []string{m[2]}})

		case quoteRe.MatchString(line):
			flush()
			var b Block
			b.Kind = Quote
			for ; i < len(lines); i++ {
				m := quoteRe.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				if t := strings.TrimSpace(m[1]); t != "" {
					b.Lines = append(b.Lines, t)
				}
			}
			i--
			if len(b.Lines) > 0 {
				blocks = append(blocks, b)
			}

		case unorderedRe.MatchString(line), orderedRe.MatchString(line):
			flush()
			ordered := !unorderedRe.MatchString(line)
			re := unorderedRe
			if ordered {
				re = orderedRe
			}
			b := Block{Kind: List, Ordered: ordered}
			for ; i < len(lines); i++ {
				m := re.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				b.Lines = append(b.Lines, strings.TrimSpace(m[1]))
			}
			i--
			blocks = append(blocks, b)

		default:
			para = append(para, trimmed)
		}
	}
	flush()
	return blocks
}

// isRule reports whether s is three or more of the same -, * or _
// characters, optionally separated by spaces.
func isRule(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) < 3 {
		return false
	}
	c := s[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	return strings.Count(s, string(c)) == len(s)
}
