package model

import "strings"

// FilterState is the category and keyword a gallery view is filtered by.
type FilterState struct {
	// Category is a label from the CategoryIndex. Defaults to CategoryAll.
	Category string `json:"category"`

	// Keyword is the free-text search. Leading and trailing whitespace is
	// ignored when matching.
	Keyword string `json:"keyword"`
}

// NewFilterState returns the default state: every category, no keyword.
func NewFilterState() FilterState {
	return FilterState{Category: CategoryAll}
}

// Normalized returns the state with an empty category replaced by
// CategoryAll and the keyword trimmed.
func (f FilterState) Normalized() FilterState {
	if strings.TrimSpace(f.Category) == "" {
		f.Category = CategoryAll
	}
	f.Keyword = strings.TrimSpace(f.Keyword)
	return f
}

// IsZero reports whether the state filters nothing out.
func (f FilterState) IsZero() bool {
	n := f.Normalized()
	return n.Category == CategoryAll && n.Keyword == ""
}
