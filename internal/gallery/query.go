package gallery

import (
	"errors"
	"fmt"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/render"
)

// Listing modes.
const (
	// ModeAppend shows every page up to Page.
	ModeAppend = "append"
	// ModePage shows only Page.
	ModePage = "page"
)

// ErrUnknownMode is returned for listing modes other than append and page.
var ErrUnknownMode = errors.New("unknown listing mode (want append or page)")

// Query describes a listing request independent of the view state.
type Query struct {
	Filter   model.FilterState
	Page     int
	PageSize int
	Mode     string
}

// Query builds a listing for q without changing the view state.
func (g *Gallery) Query(q Query) (model.Listing, error) {
	switch q.Mode {
	case "", ModeAppend, ModePage:
	default:
		return model.Listing{}, fmt.Errorf("%w: %q", ErrUnknownMode, q.Mode)
	}
	size := q.PageSize
	if size <= 0 {
		size = g.def.PageSize
	}
	p := render.NewPager(config.ClampPageSize(size, config.DefaultPageSize))

	st := q.Filter.Normalized()
	locked := g.Locked()
	result := g.match(st, locked)
	p.SetPage(q.Page, len(result))

	var visible []model.Record
	if q.Mode == ModePage {
		visible = p.PageSlice(result, p.Page())
	} else {
		visible = p.Visible(result)
	}
	return g.listing(st, result, cards(visible, locked), p.Page(), p.PageSize(), p.HasMore(len(result))), nil
}

// QueryWindow returns the windowed slice for st at a scroll offset.
func (g *Gallery) QueryWindow(st model.FilterState, offset, viewport int) render.Slice {
	locked := g.Locked()
	w := render.NewWindow(g.def.ItemHeight, viewport, g.def.WindowThreshold)
	return window(w.Apply(g.match(st.Normalized(), locked), offset), locked)
}
