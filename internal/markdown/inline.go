package markdown

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	codeSpanRe = regexp.MustCompile("`([^`]+)`")
	imageRe    = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+&#34;[^)]*&#34;)?\)`)
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	strongRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emRe       = regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`)
	slotRe     = regexp.MustCompile("\x00([0-9]+)\x00")
)

// spans holds rendered fragments that later substitutions must not touch.
type spans []string

func (s *spans) protect(fragment string) string {
	*s = append(*s, fragment)
	return "\x00" + strconv.Itoa(len(*s)-1) + "\x00"
}

func (s spans) restore(text string) string {
	// Fragments may hold slots of their own, e.g. a code span inside a
	// link label.
	for strings.Contains(text, "\x00") {
		next := slotRe.ReplaceAllStringFunc(text, func(m string) string {
			i, err := strconv.Atoi(m[1 : len(m)-1])
			if err != nil || i >= len(s) {
				return ""
			}
			return s[i]
		})
		if next == text {
			break
		}
		text = next
	}
	return strings.ReplaceAll(text, "\x00", "")
}

// inline renders one text run. The text is escaped first; code spans are
// protected, then images, links, strong and emphasis are substituted in
// that order.
func inline(text string, images ImageRewriter) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = html.EscapeString(text)

	var s spans
	text = codeSpanRe.ReplaceAllStringFunc(text, func(m string) string {
		return s.protect("<code>" + codeSpanRe.FindStringSubmatch(m)[1] + "</code>")
	})
	text = imageRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := imageRe.FindStringSubmatch(m)
		src := images.Rewrite(html.UnescapeString(sub[2]))
		return s.protect(`<img src="` + html.EscapeString(src) + `" alt="` + sub[1] +
			`" loading="lazy" referrerpolicy="no-referrer">`)
	})
	text = linkRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		return s.protect(`<a href="`+sub[2]+`">`) + sub[1] + s.protect("</a>")
	})
	text = strongRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = emRe.ReplaceAllString(text, "<em>$1</em>")
	return s.restore(text)
}
