package render

import (
	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/model"
)

// Window computes which items of a long list intersect the viewport.
// Heights share one unit, pixels for the web client or rows for the
// terminal browser.
type Window struct {
	// ItemHeight is the height of one row of items.
	ItemHeight int
	// ViewportHeight is the visible height.
	ViewportHeight int
	// Columns is the number of items per row. Values below 1 mean 1.
	Columns int
	// Buffer is the extra height rendered above and below the viewport.
	// It is raised to ItemHeight when smaller.
	Buffer int
	// Threshold is the item count above which windowing is used.
	Threshold int
}

// NewWindow returns a single-column window with a one-item buffer.
func NewWindow(itemHeight, viewportHeight, threshold int) Window {
	if itemHeight <= 0 {
		itemHeight = config.DefaultItemHeight
	}
	if threshold <= 0 {
		threshold = config.DefaultWindowThreshold
	}
	return Window{
		ItemHeight:     itemHeight,
		ViewportHeight: viewportHeight,
		Columns:        1,
		Buffer:         itemHeight,
		Threshold:      threshold,
	}
}

// Enabled reports whether total items need windowing.
func (w Window) Enabled(total int) bool {
	return total > w.Threshold
}

func (w Window) columns() int {
	if w.Columns < 1 {
		return 1
	}
	return w.Columns
}

func (w Window) itemHeight() int {
	if w.ItemHeight < 1 {
		return 1
	}
	return w.ItemHeight
}

func (w Window) buffer() int {
	if w.Buffer < w.itemHeight() {
		return w.itemHeight()
	}
	return w.Buffer
}

// Rows returns the number of rows total items occupy.
func (w Window) Rows(total int) int {
	if total <= 0 {
		return 0
	}
	cols := w.columns()
	return (total + cols - 1) / cols
}

// ContentHeight returns the full height of total items.
func (w Window) ContentHeight(total int) int {
	return w.Rows(total) * w.itemHeight()
}

// Range returns the half-open item range [start, end) to render for a
// scroll offset. The range covers the viewport plus the buffer on each side
// and is clamped to [0, total].
func (w Window) Range(total, offset int) (int, int) {
	if total <= 0 {
		return 0, 0
	}
	h := w.itemHeight()
	maxOffset := w.ContentHeight(total) - w.ViewportHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}

	top := offset - w.buffer()
	bottom := offset + w.ViewportHeight + w.buffer()

	firstRow := 0
	if top > 0 {
		firstRow = top / h
	}
	lastRow := (bottom + h - 1) / h // exclusive

	cols := w.columns()
	start := firstRow * cols
	end := lastRow * cols
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return start, end
}

// OffsetOf returns the scroll offset of the row holding item i.
func (w Window) OffsetOf(i int) int {
	if i < 0 {
		return 0
	}
	return (i / w.columns()) * w.itemHeight()
}

// Slice is the materialized part of a windowed list.
type Slice struct {
	// Start is the index of the first card in the filtered result.
	Start int `json:"start"`
	// End is the exclusive end index.
	End int `json:"end"`
	// Total is the size of the filtered result.
	Total int `json:"total"`
	// OffsetTop is the spacer height above the first card.
	OffsetTop int `json:"offset_top"`
	// ContentHeight is the height of the whole list.
	ContentHeight int `json:"content_height"`
	// Windowed is false when the list is below the threshold and every card
	// is included.
	Windowed bool `json:"windowed"`
	// Cards are the materialized cards.
	Cards []model.Card `json:"cards"`
}

// Apply returns the cards to materialize for offset. Lists at or below the
// threshold are returned whole.
func (w Window) Apply(records []model.Record, offset int) Slice {
	total := len(records)
	s := Slice{Total: total, ContentHeight: w.ContentHeight(total)}
	if !w.Enabled(total) {
		s.End = total
		s.Cards = model.NewCards(records)
		return s
	}
	s.Windowed = true
	s.Start, s.End = w.Range(total, offset)
	s.OffsetTop = w.OffsetOf(s.Start)
	s.Cards = model.NewCards(records[s.Start:s.End])
	return s
}
