package render

import (
	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/model"
)

// Pager tracks how many pages of a filtered result are visible.
type Pager struct {
	pageSize int
	page     int
}

// NewPager returns a pager on page 1. pageSize is clamped to
// [1, config.MaxPageSize]; zero selects config.DefaultPageSize.
func NewPager(pageSize int) *Pager {
	return &Pager{pageSize: config.ClampPageSize(pageSize, config.DefaultPageSize), page: 1}
}

// PageSize returns the number of items per page.
func (p *Pager) PageSize() int { return p.pageSize }

// Page returns the current page, starting at 1.
func (p *Pager) Page() int { return p.page }

// Reset returns to page 1. Call it whenever the filter changes.
func (p *Pager) Reset() { p.page = 1 }

// SetPage jumps to page n, clamped to [1, Pages(total)].
func (p *Pager) SetPage(n, total int) {
	last := p.Pages(total)
	if n > last {
		n = last
	}
	if n < 1 {
		n = 1
	}
	p.page = n
}

// LoadMore advances one page when more items exist. It reports whether the
// visible set grew.
func (p *Pager) LoadMore(total int) bool {
	if !p.HasMore(total) {
		return false
	}
	p.page++
	return true
}

// HasMore reports whether items beyond the visible prefix exist.
func (p *Pager) HasMore(total int) bool {
	return p.page*p.pageSize < total
}

// Pages returns the number of pages needed for total items, at least 1.
func (p *Pager) Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.pageSize - 1) / p.pageSize
}

// VisibleCount returns how many items the append strategy shows.
func (p *Pager) VisibleCount(total int) int {
	n := p.page * p.pageSize
	if n > total {
		n = total
	}
	return n
}

// Visible returns the items shown by the append strategy: every page up to
// and including the current one.
func (p *Pager) Visible(records []model.Record) []model.Record {
	return records[:p.VisibleCount(len(records))]
}

// PageSlice returns only the items of page n. Pages below 1 mean page 1.
func (p *Pager) PageSlice(records []model.Record, n int) []model.Record {
	if n < 1 {
		n = 1
	}
	start := (n - 1) * p.pageSize
	if start >= len(records) {
		return records[len(records):]
	}
	end := start + p.pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
