package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/showcase/internal/crawler"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/render"
	"github.com/nao1215/showcase/internal/speech"
)

var (
	// ErrNotOpen is returned by actions that need an open record.
	ErrNotOpen = errors.New("no record is open")

	// ErrLocked is returned when the body is hidden by the reading gate.
	ErrLocked = errors.New("record body is locked")

	// ErrUnknownCloseReason is returned by Close for unsupported reasons.
	ErrUnknownCloseReason = errors.New("unknown close reason")
)

// CloseReason says how the modal was dismissed.
type CloseReason string

// Close reasons.
const (
	CloseControl CloseReason = "control"
	CloseOverlay CloseReason = "overlay"
	CloseEscape  CloseReason = "escape"
)

// ParseCloseReason parses a close reason name.
func ParseCloseReason(s string) (CloseReason, error) {
	switch r := CloseReason(s); r {
	case CloseControl, CloseOverlay, CloseEscape:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCloseReason, s)
	}
}

// View is what the modal shows.
type View struct {
	Record   model.Record     `json:"record"`
	Badges   []string         `json:"badges"`
	BodyHTML string           `json:"body_html"`
	TOC      []markdown.Entry `json:"toc,omitempty"`
	// Locked is true when the body was withheld by the reading gate.
	Locked bool `json:"locked"`
}

// Option configures a Modal.
type Option func(*Modal)

// WithPlayer enables reading aloud.
func WithPlayer(p *speech.Player) Option {
	return func(m *Modal) { m.player = p }
}

// WithLock hides bodies while locked returns true.
func WithLock(locked func() bool) Option {
	return func(m *Modal) { m.locked = locked }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Modal) { m.logger = logger }
}

// Modal is a single record detail view.
type Modal struct {
	collection *model.Collection
	engine     markdown.Engine
	player     *speech.Player
	locked     func() bool
	logger     *slog.Logger

	mu        sync.Mutex
	view      *View
	lastClose CloseReason
}

// NewModal returns a closed modal over c. A nil engine selects the builtin
// markdown engine.
func NewModal(c *model.Collection, engine markdown.Engine, opts ...Option) *Modal {
	if engine == nil {
		engine = markdown.NewBuiltin()
	}
	m := &Modal{
		collection: c,
		engine:     engine,
		locked:     func() bool { return false },
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Render builds the view for id without opening it.
func (m *Modal) Render(id int) (View, error) {
	r, err := render.Resolve(m.collection, id)
	if err != nil {
		return View{}, err
	}
	v := View{Record: r, Badges: render.Badges(r)}
	if m.locked() {
		v.Locked = true
		v.Record.Body = ""
		return v, nil
	}
	doc, err := m.engine.Render(r.Body)
	if err != nil {
		return View{}, fmt.Errorf("render record %d: %w", id, err)
	}
	v.BodyHTML = doc.HTML
	v.TOC = doc.TOC
	return v, nil
}

// Open shows record id, replacing the current content and stopping speech.
// On error the modal keeps its previous state.
func (m *Modal) Open(id int) (View, error) {
	v, err := m.Render(id)
	if err != nil {
		return View{}, err
	}
	m.stopSpeech()

	m.mu.Lock()
	m.view = &v
	m.mu.Unlock()

	m.logger.Debug("modal opened", "gallery", m.collection.Name(), "id", id)
	return v, nil
}

// Current returns the open view.
func (m *Modal) Current() (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view == nil {
		return View{}, false
	}
	return *m.view, true
}

// IsOpen reports whether a record is shown.
func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view != nil
}

// Close dismisses the modal and stops speech. Closing a closed modal is a
// no-op.
func (m *Modal) Close(reason CloseReason) error {
	if _, err := ParseCloseReason(string(reason)); err != nil {
		return err
	}
	m.stopSpeech()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view == nil {
		return nil
	}
	m.view = nil
	m.lastClose = reason
	m.logger.Debug("modal closed", "gallery", m.collection.Name(), "reason", string(reason))
	return nil
}

// LastCloseReason returns how the modal was last dismissed.
func (m *Modal) LastCloseReason() CloseReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastClose
}

// Copy copies the open record's body.
func (m *Modal) Copy(cb Clipboard) Toast {
	v, ok := m.Current()
	if !ok {
		return Toast{Method: MethodClipboard, Message: MessageNothing}
	}
	if v.Locked {
		return Toast{Method: MethodClipboard, Message: MessageLocked}
	}
	t := CopyText(cb, v.Record.Body)
	if !t.OK && t.Method == MethodManual {
		m.logger.Info("clipboard unavailable, manual copy offered", "id", v.Record.ID)
	}
	return t
}

// ReadAloud toggles speech for the open record. It reports whether
// playback started.
func (m *Modal) ReadAloud(ctx context.Context) (bool, error) {
	v, ok := m.Current()
	if !ok {
		return false, ErrNotOpen
	}
	if v.Locked {
		return false, ErrLocked
	}
	if m.player == nil {
		return false, speech.ErrNoEngine
	}
	return m.player.Toggle(ctx, SpeechText(v))
}

// Speaking reports whether the open record is being read.
func (m *Modal) Speaking() bool {
	return m.player != nil && m.player.IsRunning()
}

func (m *Modal) stopSpeech() {
	if m.player != nil {
		m.player.Stop()
	}
}

// SpeechText returns the text read aloud for v: the title followed by the
// visible body text.
func SpeechText(v View) string {
	body := crawler.PlainText(v.BodyHTML)
	switch {
	case body == "":
		return v.Record.Title
	case v.Record.Title == "":
		return body
	default:
		return v.Record.Title + "\n" + body
	}
}
