package model

import (
	"time"
)

// Collection is the record set produced by one load.
//
// A Collection is read-only once built and safe for concurrent use. Records
// returns a fresh slice, so callers may reorder or truncate it freely, but the
// records themselves (including their Tags) must be treated as immutable.
type Collection struct {
	name       string
	records    []Record
	byID       map[int]int
	categories CategoryIndex
	loadedAt   time.Time
}

// NewCollection builds a collection from records in their final order.
// IDs are assigned from position, starting at 1, and nil Tags are replaced
// with an empty slice.
func NewCollection(name string, records []Record, loadedAt time.Time) *Collection {
	rs := make([]Record, len(records))
	byID := make(map[int]int, len(records))
	for i, r := range records {
		r.ID = i + 1
		r.Category = NormalizeCategory(r.Category)
		if r.Tags == nil {
			r.Tags = []string{}
		}
		rs[i] = r
		byID[r.ID] = i
	}
	return &Collection{
		name:       name,
		records:    rs,
		byID:       byID,
		categories: NewCategoryIndex(rs),
		loadedAt:   loadedAt,
	}
}

// EmptyCollection returns a collection without records. It backs galleries
// whose load failed.
func EmptyCollection(name string) *Collection {
	return NewCollection(name, nil, time.Time{})
}

// Name returns the gallery name the collection was loaded for.
func (c *Collection) Name() string { return c.name }

// LoadedAt returns the time the load finished.
func (c *Collection) LoadedAt() time.Time { return c.loadedAt }

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.records) }

// Records returns the records in canonical order.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// At returns the record at position i in canonical order.
func (c *Collection) At(i int) Record { return c.records[i] }

// Get resolves a record by ID.
func (c *Collection) Get(id int) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Categories returns the category index of the collection.
func (c *Collection) Categories() CategoryIndex {
	return c.categories.clone()
}

// CategoryCounts returns the number of records per category label.
func (c *Collection) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(c.categories))
	for _, r := range c.records {
		counts[r.Category]++
	}
	return counts
}
