// Package tui is the terminal browser for one gallery.
//
// The browser shows category tabs, a search line and the card list. Each
// keystroke in the search line starts an asynchronous search tagged with a
// sequencer generation; results that arrive after a newer search was
// started are dropped. Enter opens the record in a scrollable detail view
// rendered with glamour.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/speech"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeLines is the number of lines above and below the card list.
	chromeLines = 8
	// cardLines is the height of one card.
	cardLines = 2
)

// searchResultMsg carries a finished search back to Update.
type searchResultMsg struct {
	result gallery.SearchResult
}

// Option configures a Model.
type Option func(*Model)

// WithClipboard replaces the system clipboard.
func WithClipboard(cb detail.Clipboard) Option {
	return func(m *Model) { m.clipboard = cb }
}

// WithGlamourStyle sets the glamour style of record bodies: dark, light or
// notty.
func WithGlamourStyle(style string) Option {
	return func(m *Model) { m.glamourStyle = style }
}

// WithContext sets the context speech runs under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// Model is the bubbletea model of the browser.
type Model struct {
	gallery      *gallery.Gallery
	clipboard    detail.Clipboard
	glamourStyle string
	ctx          context.Context
	styles       Styles
	keys         keyMap
	help         help.Model

	input     textinput.Model
	searching bool

	listing model.Listing
	cursor  int
	top     int

	modalOpen bool
	view      detail.View
	body      viewport.Model

	width  int
	height int
	status string
}

// New returns the browser model for g.
func New(g *gallery.Gallery, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Search titles and text"
	ti.Prompt = "/ "
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		gallery:      g,
		clipboard:    detail.SystemClipboard{},
		glamourStyle: markdown.StyleDark,
		ctx:          context.Background(),
		styles:       DefaultStyles(),
		keys:         defaultKeyMap(),
		help:         help.New(),
		input:        ti,
		body:         viewport.New(defaultWidth, defaultHeight-chromeLines),
		width:        defaultWidth,
		height:       defaultHeight,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.listing = g.Listing()
	return m
}

// Run starts the browser for g and blocks until the user quits.
func Run(ctx context.Context, g *gallery.Gallery, opts ...Option) error {
	opts = append(opts, WithContext(ctx))
	p := tea.NewProgram(New(g, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.body.Width = msg.Width
		m.body.Height = max(msg.Height-chromeLines, 3)
		if m.modalOpen {
			m.renderBody()
		}
		m.scrollToCursor()
		return m, nil

	case searchResultMsg:
		if m.gallery.Commit(msg.result) {
			m.setListing(m.gallery.Listing())
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceEnd) {
			return m, tea.Quit
		}
		switch {
		case m.modalOpen:
			return m.updateModal(msg)
		case m.searching:
			return m.updateSearch(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.listing.Cards)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.NextCat):
		m.setListing(m.gallery.NextCategory())
	case key.Matches(msg, m.keys.PrevCat):
		m.setListing(m.gallery.PrevCategory())
	case key.Matches(msg, m.keys.More):
		if !m.listing.HasMore {
			m.status = "All records are shown"
			break
		}
		cursor := m.cursor
		m.listing = m.gallery.LoadMore()
		m.cursor = cursor
	case key.Matches(msg, m.keys.Open):
		return m.open()
	case key.Matches(msg, m.keys.Back):
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.setListing(m.gallery.SetKeyword(""))
		}
	}
	m.scrollToCursor()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.setListing(m.gallery.SetKeyword(""))
		return m, nil
	case tea.KeyEnter, tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
		m.searching = false
		m.input.Blur()
		if msg.Type == tea.KeyEnter {
			return m, nil
		}
		return m.updateList(msg)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.search(m.input.Value()))
}

// search issues a search for keyword and returns the command that runs it.
func (m Model) search(keyword string) tea.Cmd {
	s := m.gallery.BeginKeywordSearch(keyword)
	g := m.gallery
	return func() tea.Msg {
		return searchResultMsg{result: g.Run(s)}
	}
}

func (m Model) open() (tea.Model, tea.Cmd) {
	if len(m.listing.Cards) == 0 {
		return m, nil
	}
	v, err := m.gallery.Open(m.listing.Cards[m.cursor].ID)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.view = v
	m.modalOpen = true
	m.renderBody()
	return m, nil
}

func (m *Model) renderBody() {
	if m.view.Locked {
		m.body.SetContent(m.styles.Error.Render("This record is locked. Run `showcase gate unlock` to read it."))
		return
	}
	out, err := markdown.RenderTerminal(m.view.Record.Body, m.glamourStyle, m.body.Width-2)
	if err != nil {
		out = m.view.Record.Body
	}
	m.body.SetContent(out)
	m.body.GotoTop()
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		_ = m.gallery.Modal().Close(detail.CloseControl)
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		_ = m.gallery.Modal().Close(detail.CloseEscape)
		m.modalOpen = false
		m.view = detail.View{}
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		t := m.gallery.Modal().Copy(m.clipboard)
		m.status = t.Message
		return m, nil
	case key.Matches(msg, m.keys.Speak):
		started, err := m.gallery.Modal().ReadAloud(m.ctx)
		switch {
		case errors.Is(err, speech.ErrNoEngine):
			m.status = "No speech engine found"
		case err != nil:
			m.status = err.Error()
		case started:
			m.status = "Reading aloud, press r to stop"
		default:
			m.status = "Stopped reading"
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m *Model) setListing(l model.Listing) {
	m.listing = l
	m.cursor = 0
	m.top = 0
}

// visibleCards is the number of cards that fit on screen.
func (m Model) visibleCards() int {
	return max((m.height-chromeLines)/cardLines, 1)
}

func (m *Model) scrollToCursor() {
	n := m.visibleCards()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+n {
		m.top = m.cursor - n + 1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.modalOpen {
		return m.modalView()
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.listing.Title))
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n")
	if m.searching || m.input.Value() != "" {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n\n")

	switch m.listing.State {
	case model.ListingLoadError:
		b.WriteString(m.styles.Error.Render("This gallery could not be loaded."))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(m.listing.Error))
		b.WriteString("\n")
	case model.ListingEmpty:
		b.WriteString(m.styles.Muted.Render("No records match."))
		b.WriteString("\n")
	default:
		b.WriteString(m.cardsView())
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(m.footerText()))
	if m.status != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.Status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.listHelp()))
	return b.String()
}

func (m Model) tabsView() string {
	tabs := make([]string, len(m.listing.Categories))
	for i, c := range m.listing.Categories {
		if c == m.listing.Filter.Category {
			tabs[i] = m.styles.ActiveTab.Render(c)
		} else {
			tabs[i] = m.styles.Tab.Render(c)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) cardsView() string {
	var b strings.Builder
	end := min(m.top+m.visibleCards(), len(m.listing.Cards))
	for i := m.top; i < end; i++ {
		c := m.listing.Cards[i]
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("#%d", c.ID)
		}
		line := title + " " + m.styles.Badge.Render(c.Category)
		excerpt := m.styles.Excerpt.Render(model.Truncate(c.Excerpt, max(m.width-6, 20)))
		card := line + "\n" + excerpt
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render(card))
		} else {
			b.WriteString(m.styles.Card.Render(card))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) footerText() string {
	text := fmt.Sprintf("%d of %d shown", len(m.listing.Cards), m.listing.Matched)
	if m.listing.Matched != m.listing.Total {
		text += fmt.Sprintf(" (%d in gallery)", m.listing.Total)
	}
	if m.listing.HasMore {
		text += " • m for more"
	}
	return text
}

func (m Model) modalView() string {
	r := m.view.Record
	badges := make([]string, len(m.view.Badges))
	for i, badge := range m.view.Badges {
		badges[i] = m.styles.Badge.Render(badge)
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(r.Title))
	b.WriteString("\n")
	b.WriteString(strings.Join(badges, " "))
	b.WriteString("\n")
	b.WriteString(m.styles.ModalBorder.Render(m.body.View()))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.modalHelp()))
	return b.String()
}
