package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/showcase/internal/model"
)

// folder is stateless and shared by all goroutines.
var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

// Apply returns the records in category whose title, description or body
// contains keyword, in input order. The result is a new slice.
func Apply(records []model.Record, category, keyword string) []model.Record {
	st := model.FilterState{Category: category, Keyword: keyword}.Normalized()
	needle := fold(st.Keyword)

	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if !MatchCategory(r, st.Category) {
			continue
		}
		if needle != "" && !matchFolded(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ApplyState is Apply with a FilterState.
func ApplyState(records []model.Record, st model.FilterState) []model.Record {
	return Apply(records, st.Category, st.Keyword)
}

// MatchCategory reports whether r belongs to category. CategoryAll and an
// empty category match every record.
func MatchCategory(r model.Record, category string) bool {
	if category == "" || category == model.CategoryAll {
		return true
	}
	return r.Category == category
}

// MatchKeyword reports whether r matches keyword.
func MatchKeyword(r model.Record, keyword string) bool {
	needle := fold(strings.TrimSpace(keyword))
	if needle == "" {
		return true
	}
	return matchFolded(r, needle)
}

func matchFolded(r model.Record, needle string) bool {
	for _, field := range [...]string{r.Title, r.Description, r.Body} {
		if field == "" {
			continue
		}
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}
