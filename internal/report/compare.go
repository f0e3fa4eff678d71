package report

import (
	"sort"

	"github.com/nao1215/showcase/internal/model"
)

// Direction summarizes how a gallery changed between two loads.
type Direction string

const (
	DirectionGrew      Direction = "grew"
	DirectionShrank    Direction = "shrank"
	DirectionChanged   Direction = "changed"
	DirectionUnchanged Direction = "unchanged"
)

// Comparison is the difference between two loads of the same gallery.
// Records are matched by fingerprint, so edits to a record's title or body
// show up as one removal and one addition.
type Comparison struct {
	Gallery string `json:"gallery"`

	// OldID and NewID are the compared load report IDs.
	OldID string `json:"old_id"`
	NewID string `json:"new_id"`

	OldCount int `json:"old_count"`
	NewCount int `json:"new_count"`

	// Added and Removed hold record titles.
	Added   []string `json:"added"`
	Removed []string `json:"removed"`

	// CategoryDelta maps each category whose count changed to new - old.
	CategoryDelta map[string]int `json:"category_delta"`

	Direction Direction `json:"direction"`
}

// Compare diffs two loads. old is the earlier one.
func Compare(old, cur *model.LoadReport) *Comparison {
	c := &Comparison{
		Gallery:       cur.Gallery,
		OldID:         old.ID,
		NewID:         cur.ID,
		OldCount:      old.RecordCount,
		NewCount:      cur.RecordCount,
		Added:         []string{},
		Removed:       []string{},
		CategoryDelta: make(map[string]int),
	}

	oldSet := multiset(old.Fingerprints)
	newSet := multiset(cur.Fingerprints)
	for i, fp := range cur.Fingerprints {
		if oldSet[fp] > 0 {
			oldSet[fp]--
			continue
		}
		c.Added = append(c.Added, titleAt(cur, i))
	}
	for i, fp := range old.Fingerprints {
		if newSet[fp] > 0 {
			newSet[fp]--
			continue
		}
		c.Removed = append(c.Removed, titleAt(old, i))
	}

	for label, n := range cur.CategoryCounts {
		if d := n - old.CategoryCounts[label]; d != 0 {
			c.CategoryDelta[label] = d
		}
	}
	for label, n := range old.CategoryCounts {
		if _, ok := cur.CategoryCounts[label]; !ok {
			c.CategoryDelta[label] = -n
		}
	}

	switch {
	case len(c.Added) > 0 && len(c.Removed) == 0:
		c.Direction = DirectionGrew
	case len(c.Removed) > 0 && len(c.Added) == 0:
		c.Direction = DirectionShrank
	case len(c.Added) > 0:
		c.Direction = DirectionChanged
	default:
		c.Direction = DirectionUnchanged
	}
	return c
}

// Categories returns the labels of CategoryDelta sorted by name.
func (c *Comparison) Categories() []string {
	labels := make([]string, 0, len(c.CategoryDelta))
	for label := range c.CategoryDelta {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func multiset(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for _, v := range values {
		m[v]++
	}
	return m
}

func titleAt(r *model.LoadReport, i int) string {
	if i < len(r.Titles) && r.Titles[i] != "" {
		return r.Titles[i]
	}
	return "(untitled)"
}
