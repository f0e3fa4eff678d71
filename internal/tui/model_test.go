package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func newGallery() *gallery.Gallery {
	c := model.NewCollection("prompts", []model.Record{
		{Title: "Summarize", Category: "Writing", Body: "Summarize the text in three sentences."},
		{Title: "Fox story", Category: "Fiction", Body: "A quick brown fox jumps at night."},
		{Title: "Translate", Category: "Writing", Body: "Translate into **French**."},
		{Title: "Owl story", Category: "Fiction", Body: "Owls hunt at night."},
		{Title: "Outline", Category: "Writing", Body: "Outline an essay."},
	}, time.Now())
	return gallery.New("prompts", c, gallery.WithDefinition(config.Gallery{Title: "Prompts", PageSize: 2}))
}

func newModel(opts ...Option) Model {
	opts = append([]Option{WithGlamourStyle(markdown.StyleNoTTY)}, opts...)
	return New(newGallery(), opts...)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

// collect runs cmd and returns the messages it produces, flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func titles(l model.Listing) []string {
	out := make([]string, len(l.Cards))
	for i, c := range l.Cards {
		out[i] = c.Title
	}
	return out
}

func TestCategoryCycling(t *testing.T) {
	t.Parallel()

	m := newModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.listing.Filter.Category != "Writing" {
		t.Errorf("after tab category = %q, want Writing", m.listing.Filter.Category)
	}
	if diff := cmp.Diff([]string{"Summarize", "Translate"}, titles(m.listing)); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.listing.Filter.Category != model.CategoryAll {
		t.Errorf("tab should wrap to all, got %q", m.listing.Filter.Category)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.listing.Filter.Category != "Fiction" {
		t.Errorf("after shift+tab category = %q, want Fiction", m.listing.Filter.Category)
	}
}

func TestAsyncSearchDropsStaleResults(t *testing.T) {
	t.Parallel()

	m := newModel()
	m, _ = update(t, m, runes("/"))
	if !m.searching {
		t.Fatal("/ did not focus the search line")
	}

	var pending [][]tea.Msg
	for _, r := range "fox" {
		var cmd tea.Cmd
		m, cmd = update(t, m, runes(string(r)))
		pending = append(pending, collect(cmd))
	}

	// The newest search finishes first.
	for _, msg := range pending[2] {
		m, _ = update(t, m, msg)
	}
	if diff := cmp.Diff([]string{"Fox story"}, titles(m.listing)); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}

	// The search for "f" would also match "French"; it must be dropped.
	for _, msg := range pending[0] {
		m, _ = update(t, m, msg)
	}
	if diff := cmp.Diff([]string{"Fox story"}, titles(m.listing)); diff != "" {
		t.Errorf("stale result was applied (-want +got):\n%s", diff)
	}
	if m.listing.Filter.Keyword != "fox" {
		t.Errorf("keyword = %q, want fox", m.listing.Filter.Keyword)
	}
}

func TestEscClearsSearch(t *testing.T) {
	t.Parallel()

	m := newModel()
	m, _ = update(t, m, runes("/"))
	m, cmd := update(t, m, runes("xyz"))
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}
	if m.listing.State != model.ListingEmpty {
		t.Fatalf("state = %s, want empty", m.listing.State)
	}
	if !strings.Contains(m.View(), "No records match") {
		t.Errorf("empty view missing placeholder:\n%s", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searching || m.input.Value() != "" {
		t.Errorf("esc left search open: searching=%v value=%q", m.searching, m.input.Value())
	}
	if m.listing.Matched != 5 || m.listing.State != model.ListingOK {
		t.Errorf("after esc matched %d state %s", m.listing.Matched, m.listing.State)
	}
}

func TestLoadMoreKeepsCursor(t *testing.T) {
	t.Parallel()

	m := newModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, runes("m"))
	if diff := cmp.Diff([]string{"Summarize", "Fox story", "Translate", "Owl story"}, titles(m.listing)); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	m, _ = update(t, m, runes("m"))
	m, _ = update(t, m, runes("m"))
	if len(m.listing.Cards) != 5 || m.status != "All records are shown" {
		t.Errorf("cards %d status %q", len(m.listing.Cards), m.status)
	}
}

func TestModal(t *testing.T) {
	t.Parallel()

	cb := &fakeClipboard{}
	m := newModel(WithClipboard(cb))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.modalOpen || m.view.Record.Title != "Translate" {
		t.Fatalf("modal open=%v record=%q", m.modalOpen, m.view.Record.Title)
	}
	if v := m.View(); !strings.Contains(v, "French") || !strings.Contains(v, "Writing") {
		t.Errorf("modal view missing body or badge:\n%s", v)
	}

	m, _ = update(t, m, runes("c"))
	if cb.text != "Translate into **French**." || m.status != detail.MessageCopied {
		t.Errorf("copy: clipboard %q status %q", cb.text, m.status)
	}

	m, _ = update(t, m, runes("r"))
	if m.status != "No speech engine found" {
		t.Errorf("read aloud status = %q", m.status)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modalOpen || m.gallery.Modal().IsOpen() {
		t.Error("esc did not close the modal")
	}
	if got := m.gallery.Modal().LastCloseReason(); got != detail.CloseEscape {
		t.Errorf("close reason = %q, want escape", got)
	}
	if m.listing.Filter.Category != "Writing" || m.cursor != 1 {
		t.Errorf("list state lost: category %q cursor %d", m.listing.Filter.Category, m.cursor)
	}
}

func TestCopyFallsBackToManual(t *testing.T) {
	t.Parallel()

	m := newModel(WithClipboard(&fakeClipboard{err: errors.New("no display")}))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, runes("c"))
	if m.status != detail.MessageManualCopy {
		t.Errorf("status = %q, want %q", m.status, detail.MessageManualCopy)
	}
}

func TestLoadErrorView(t *testing.T) {
	t.Parallel()

	g := gallery.NewFailed("broken", errors.New("load broken: decode: unexpected EOF"))
	m := New(g, WithGlamourStyle(markdown.StyleNoTTY))
	v := m.View()
	if !strings.Contains(v, "could not be loaded") || !strings.Contains(v, "unexpected EOF") {
		t.Errorf("load error view:\n%s", v)
	}

	// Enter on an empty list does nothing.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modalOpen {
		t.Error("modal opened on a failed gallery")
	}
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newModel()

	_, cmd := update(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}

	// While typing a search, q is text.
	m, _ = update(t, m, runes("/"))
	m, _ = update(t, m, runes("q"))
	if m.input.Value() != "q" {
		t.Errorf("search value = %q, want q", m.input.Value())
	}
}

func TestWindowResize(t *testing.T) {
	t.Parallel()

	m := newModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 12})
	if m.visibleCards() != 2 {
		t.Errorf("visibleCards() = %d, want 2", m.visibleCards())
	}
	m, _ = update(t, m, runes("m"))
	for range 3 {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != 3 || m.top != 2 {
		t.Errorf("cursor %d top %d, want 3 and 2", m.cursor, m.top)
	}
}
