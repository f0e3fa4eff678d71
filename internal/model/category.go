package model

// CategoryIndex is the ordered list of category labels offered for
// filtering. The first entry is always CategoryAll, followed by each label
// present in the records in first-seen order.
type CategoryIndex []string

// NewCategoryIndex derives the category index from records.
func NewCategoryIndex(records []Record) CategoryIndex {
	seen := make(map[string]bool, 8)
	idx := CategoryIndex{CategoryAll}
	for _, r := range records {
		c := NormalizeCategory(r.Category)
		if seen[c] {
			continue
		}
		seen[c] = true
		idx = append(idx, c)
	}
	return idx
}

// Contains reports whether label is offered by the index.
func (ci CategoryIndex) Contains(label string) bool {
	for _, c := range ci {
		if c == label {
			return true
		}
	}
	return false
}

// Next returns the label after current, wrapping around. Unknown labels
// move to CategoryAll.
func (ci CategoryIndex) Next(current string) string {
	return ci.step(current, 1)
}

// Prev returns the label before current, wrapping around.
func (ci CategoryIndex) Prev(current string) string {
	return ci.step(current, -1)
}

func (ci CategoryIndex) step(current string, delta int) string {
	if len(ci) == 0 {
		return CategoryAll
	}
	for i, c := range ci {
		if c == current {
			return ci[(i+delta+len(ci))%len(ci)]
		}
	}
	return CategoryAll
}

func (ci CategoryIndex) clone() CategoryIndex {
	out := make(CategoryIndex, len(ci))
	copy(out, ci)
	return out
}
