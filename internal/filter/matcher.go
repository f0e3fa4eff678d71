package filter

import (
	"strings"

	"github.com/nao1215/showcase/internal/model"
)

// Matcher filters one collection repeatedly. Folded fields are computed
// once, so each keystroke only folds the keyword. A Matcher is safe for
// concurrent use.
type Matcher struct {
	records []model.Record
	folded  []string
	titles  []string
}

// NewMatcher prepares a matcher for c.
func NewMatcher(c *model.Collection) *Matcher {
	records := c.Records()
	folded := make([]string, len(records))
	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = fold(r.Title)
		// NUL separates fields so a keyword cannot match across them.
		folded[i] = titles[i] + "\x00" + fold(r.Description) + "\x00" + fold(r.Body)
	}
	return &Matcher{records: records, folded: folded, titles: titles}
}

// Apply returns the same records as filter.Apply over the collection.
func (m *Matcher) Apply(category, keyword string) []model.Record {
	return m.apply(m.folded, category, keyword)
}

// ApplyTitles is Apply with the keyword matched against titles only. It
// keeps hidden bodies and their derived descriptions out of matching.
func (m *Matcher) ApplyTitles(category, keyword string) []model.Record {
	return m.apply(m.titles, category, keyword)
}

func (m *Matcher) apply(haystack []string, category, keyword string) []model.Record {
	st := model.FilterState{Category: category, Keyword: keyword}.Normalized()
	needle := fold(st.Keyword)

	out := make([]model.Record, 0, len(m.records))
	for i, r := range m.records {
		if !MatchCategory(r, st.Category) {
			continue
		}
		if needle != "" && (strings.Contains(needle, "\x00") || !strings.Contains(haystack[i], needle)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ApplyState is Apply with a FilterState.
func (m *Matcher) ApplyState(st model.FilterState) []model.Record {
	return m.Apply(st.Category, st.Keyword)
}

// ApplyTitleState is ApplyTitles with a FilterState.
func (m *Matcher) ApplyTitleState(st model.FilterState) []model.Record {
	return m.ApplyTitles(st.Category, st.Keyword)
}

// Len returns the number of records the matcher covers.
func (m *Matcher) Len() int { return len(m.records) }
