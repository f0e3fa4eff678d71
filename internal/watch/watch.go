// Package watch reloads galleries when their source files change.
//
// The watcher observes directories rather than files, because editors
// usually save by writing a new file and renaming it over the old one.
// Events are debounced so a burst of writes triggers one reload.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event before
// reloading.
const DefaultDebounce = 300 * time.Millisecond

// ErrRunning is returned by Run when the watcher is already running.
var ErrRunning = errors.New("watcher is already running")

// ReloadFunc reloads the named galleries.
type ReloadFunc func(ctx context.Context, galleries []string)

// Watcher maps file system changes to gallery reloads.
type Watcher struct {
	watcher  *fsnotify.Watcher
	reload   ReloadFunc
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	files   map[string]map[string]bool // file path -> galleries
	dirs    map[string]map[string]bool // whole watched directory -> galleries
	watched map[string]bool
	running bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New returns a watcher that calls reload with the galleries whose files
// changed.
func New(reload ReloadFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
		files:    make(map[string]map[string]bool),
		dirs:     make(map[string]map[string]bool),
		watched:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches path for gallery. A directory is watched as a whole (body
// files); a file is watched through its parent directory.
func (w *Watcher) Add(gallery, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	w.mu.Lock()
	if info.IsDir() {
		dir = abs
		addTo(w.dirs, abs, gallery)
	} else {
		addTo(w.files, abs, gallery)
	}
	already := w.watched[dir]
	w.watched[dir] = true
	w.mu.Unlock()

	if already {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Debug("watching", slog.String("gallery", gallery), slog.String("dir", dir))
	return nil
}

func addTo(m map[string]map[string]bool, key, gallery string) {
	if m[key] == nil {
		m[key] = make(map[string]bool)
	}
	m[key][gallery] = true
}

// Close stops watching. Run closes the watcher itself when it returns.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// galleriesFor returns the galleries affected by a change to path.
func (w *Watcher) galleriesFor(path string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var names []string
	for name := range w.files[path] {
		names = append(names, name)
	}
	for name := range w.dirs[filepath.Dir(path)] {
		names = append(names, name)
	}
	return names
}

// Run processes events until ctx is cancelled, then closes the watcher.
// A Watcher runs once.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunning
	}
	w.running = true
	w.mu.Unlock()
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			names := w.galleriesFor(filepath.Clean(event.Name))
			if len(names) == 0 {
				continue
			}
			w.logger.Debug("source changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			for _, name := range names {
				pending[name] = true
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", slog.Any("error", err))

		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			w.logger.Info("reloading galleries", slog.Any("galleries", names))
			w.reload(ctx, names)
		}
	}
}
