package gallery

import (
	"fmt"
	"sync"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/filter"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/render"
)

// Option configures a Gallery.
type Option func(*Gallery)

// WithDefinition sets the configured definition (title, page size, window
// settings).
func WithDefinition(def config.Gallery) Option {
	return func(g *Gallery) { g.def = def }
}

// WithEngine sets the markdown engine used by the detail modal.
func WithEngine(e markdown.Engine) Option {
	return func(g *Gallery) { g.engine = e }
}

// WithModalOptions passes options to the detail modal.
func WithModalOptions(opts ...detail.Option) Option {
	return func(g *Gallery) { g.modalOpts = append(g.modalOpts, opts...) }
}

// WithLock hides record bodies from listings while locked returns true:
// cards carry no excerpt and keywords match titles only. The detail modal
// is locked separately with detail.WithLock.
func WithLock(locked func() bool) Option {
	return func(g *Gallery) { g.locked = locked }
}

// Gallery is the view state of one loaded (or failed) gallery.
type Gallery struct {
	name       string
	def        config.Gallery
	collection *model.Collection
	err        error
	engine     markdown.Engine
	modalOpts  []detail.Option
	locked     func() bool

	matcher *filter.Matcher
	seq     *filter.Sequencer
	modal   *detail.Modal

	// mu guards the pager and keeps it in step with the committed result.
	mu    sync.Mutex
	pager *render.Pager
	// resultLocked is the lock state the committed result was matched under.
	resultLocked bool
}

// New returns the view state for a loaded collection, showing every record.
func New(name string, c *model.Collection, opts ...Option) *Gallery {
	g := &Gallery{name: name, collection: c}
	for _, opt := range opts {
		opt(g)
	}
	g.matcher = filter.NewMatcher(c)
	g.seq = &filter.Sequencer{}
	g.pager = render.NewPager(g.def.PageSize)
	g.modal = detail.NewModal(c, g.engine, g.modalOpts...)

	st := model.NewFilterState()
	locked := g.Locked()
	g.seq.Commit(g.seq.Next(), st, g.match(st, locked))
	g.resultLocked = locked
	return g
}

// NewFailed returns the view state of a gallery whose load failed. It lists
// nothing and reports the load_error state.
func NewFailed(name string, err error, opts ...Option) *Gallery {
	g := New(name, model.EmptyCollection(name), opts...)
	g.err = err
	return g
}

// Name returns the gallery name.
func (g *Gallery) Name() string { return g.name }

// Title returns the display title, defaulting to the name.
func (g *Gallery) Title() string {
	if g.def.Title != "" {
		return g.def.Title
	}
	return g.name
}

// Definition returns the configured definition.
func (g *Gallery) Definition() config.Gallery { return g.def }

// Collection returns the loaded records.
func (g *Gallery) Collection() *model.Collection { return g.collection }

// Err returns the load error, if any.
func (g *Gallery) Err() error { return g.err }

// Failed reports whether the load failed.
func (g *Gallery) Failed() bool { return g.err != nil }

// Locked reports whether record bodies are currently hidden.
func (g *Gallery) Locked() bool { return g.locked != nil && g.locked() }

// Categories returns the category index.
func (g *Gallery) Categories() model.CategoryIndex { return g.collection.Categories() }

// Filter returns the committed filter state.
func (g *Gallery) Filter() model.FilterState {
	st, _, _ := g.seq.Current()
	return st
}

// SetCategory selects a category, keeping the keyword, and returns to page 1.
func (g *Gallery) SetCategory(category string) model.Listing {
	st := g.Filter()
	st.Category = category
	return g.SetFilter(st)
}

// SetKeyword changes the keyword, keeping the category, and returns to
// page 1.
func (g *Gallery) SetKeyword(keyword string) model.Listing {
	st := g.Filter()
	st.Keyword = keyword
	return g.SetFilter(st)
}

// SetFilter replaces the filter state and returns to page 1.
func (g *Gallery) SetFilter(st model.FilterState) model.Listing {
	s := g.BeginSearch(st)
	g.Commit(g.Run(s))
	return g.Listing()
}

// NextCategory moves to the next category in the index.
func (g *Gallery) NextCategory() model.Listing {
	return g.SetCategory(g.Categories().Next(g.Filter().Normalized().Category))
}

// PrevCategory moves to the previous category in the index.
func (g *Gallery) PrevCategory() model.Listing {
	return g.SetCategory(g.Categories().Prev(g.Filter().Normalized().Category))
}

// Search is an issued filter request.
type Search struct {
	Generation filter.Generation
	State      model.FilterState
	// Locked matches titles only.
	Locked bool
}

// SearchResult is the outcome of a Search.
type SearchResult struct {
	Search
	Records []model.Record
}

// BeginSearch issues a generation for st. Any search begun earlier can no
// longer be committed.
func (g *Gallery) BeginSearch(st model.FilterState) Search {
	return Search{Generation: g.seq.Next(), State: st.Normalized(), Locked: g.Locked()}
}

// BeginKeywordSearch issues a search for keyword in the current category.
func (g *Gallery) BeginKeywordSearch(keyword string) Search {
	st := g.Filter()
	st.Keyword = keyword
	return g.BeginSearch(st)
}

// Run computes the records for s. It does not touch the view state and may
// run on any goroutine.
func (g *Gallery) Run(s Search) SearchResult {
	return SearchResult{Search: s, Records: g.match(s.State, s.Locked)}
}

// Commit applies res unless a newer search has been issued. It reports
// whether res was applied.
func (g *Gallery) Commit(res SearchResult) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.seq.Commit(res.Generation, res.State, res.Records) {
		return false
	}
	g.pager.Reset()
	g.resultLocked = res.Locked
	return true
}

// LoadMore reveals the next page, keeping the visible cards.
func (g *Gallery) LoadMore() model.Listing {
	g.mu.Lock()
	_, result, _ := g.current()
	g.pager.LoadMore(len(result))
	g.mu.Unlock()
	return g.Listing()
}

// Listing returns the cards visible in append mode.
func (g *Gallery) Listing() model.Listing {
	g.mu.Lock()
	st, result, locked := g.current()
	page, size := g.pager.Page(), g.pager.PageSize()
	visible := g.pager.Visible(result)
	g.mu.Unlock()

	return g.listing(st, result, cards(visible, locked), page, size, page*size < len(result))
}

// Window returns the windowed slice of the current result.
func (g *Gallery) Window(offset, viewport int) render.Slice {
	g.mu.Lock()
	_, result, locked := g.current()
	g.mu.Unlock()
	w := render.NewWindow(g.def.ItemHeight, viewport, g.def.WindowThreshold)
	return window(w.Apply(result, offset), locked)
}

// Open shows record id in the detail modal. The record is found by ID, so
// the current filter and page do not matter.
func (g *Gallery) Open(id int) (detail.View, error) {
	v, err := g.modal.Open(id)
	if err != nil {
		return detail.View{}, fmt.Errorf("open %s/%d: %w", g.name, id, err)
	}
	return v, nil
}

// Modal returns the detail modal.
func (g *Gallery) Modal() *detail.Modal { return g.modal }

func (g *Gallery) listing(st model.FilterState, result []model.Record, cards []model.Card, page, size int, more bool) model.Listing {
	l := model.Listing{
		Gallery:    g.name,
		Title:      g.Title(),
		Filter:     st.Normalized(),
		Categories: g.Categories(),
		Cards:      cards,
		Total:      g.collection.Len(),
		Matched:    len(result),
		Page:       page,
		PageSize:   size,
		HasMore:    more,
		State:      model.ListingOK,
	}
	switch {
	case g.err != nil:
		l.State = model.ListingLoadError
		l.Error = g.err.Error()
	case len(result) == 0:
		l.State = model.ListingEmpty
	}
	return l
}

// current returns the committed filter and result, rematched when the lock
// state changed since the commit. g.mu must be held.
func (g *Gallery) current() (model.FilterState, []model.Record, bool) {
	st, result, _ := g.seq.Current()
	locked := g.Locked()
	if locked != g.resultLocked {
		result = g.match(st, locked)
	}
	return st, result, locked
}

func (g *Gallery) match(st model.FilterState, locked bool) []model.Record {
	if locked {
		return g.matcher.ApplyTitleState(st)
	}
	return g.matcher.ApplyState(st)
}

func cards(records []model.Record, locked bool) []model.Card {
	if locked {
		return model.NewLockedCards(records)
	}
	return model.NewCards(records)
}

func window(s render.Slice, locked bool) render.Slice {
	if locked {
		for i := range s.Cards {
			s.Cards[i].Excerpt = ""
		}
	}
	return s
}
