package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/gate"
	"github.com/nao1215/showcase/internal/index"
)

// DefaultRequestTimeout bounds each request.
const DefaultRequestTimeout = 30 * time.Second

// shutdownTimeout is how long Run waits for open requests on shutdown.
const shutdownTimeout = 5 * time.Second

// Preferences is the preference store behind /api/prefs.
type Preferences interface {
	SetPreference(ctx context.Context, key, value string, ttl time.Duration) error
	GetPreference(ctx context.Context, key string) (string, bool, error)
	DeletePreference(ctx context.Context, key string) error
}

// entry is one served gallery with its lazily built search index.
type entry struct {
	gallery *gallery.Gallery

	mu     sync.Mutex
	index  *index.Index
	closed bool
}

// errIndexClosed is returned when a search races a gallery replacement.
var errIndexClosed = errors.New("gallery was reloaded")

// search runs query against the index, building it on first use. e.mu is
// held for the whole search so close cannot release the index under it.
func (e *entry) search(query, category string, limit int, titles bool) ([]index.Hit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errIndexClosed
	}
	if e.index == nil {
		idx, err := index.Build(e.gallery.Collection())
		if err != nil {
			return nil, err
		}
		e.index = idx
	}
	if titles {
		return e.index.SearchTitles(query, category, limit)
	}
	return e.index.Search(query, category, limit)
}

func (e *entry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.index != nil {
		_ = e.index.Close()
		e.index = nil
	}
}

// Server serves galleries over HTTP.
type Server struct {
	logger         *slog.Logger
	gate           *gate.Gate
	prefs          Preferences
	requestTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGate enables the reading gate for gated galleries and /api/unlock.
func WithGate(g *gate.Gate) Option {
	return func(s *Server) { s.gate = g }
}

// WithPreferences enables /api/prefs.
func WithPreferences(p Preferences) Option {
	return func(s *Server) { s.prefs = p }
}

// WithRequestTimeout bounds each request. Non-positive values keep the
// default.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// New returns a server with no galleries.
func New(opts ...Option) *Server {
	s := &Server{
		logger:         slog.New(slog.DiscardHandler),
		requestTimeout: DefaultRequestTimeout,
		entries:        make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update adds galleries or replaces the ones with the same name. The search
// index of a replaced gallery is discarded.
func (s *Server) Update(galleries ...*gallery.Gallery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range galleries {
		if g == nil {
			continue
		}
		if old, ok := s.entries[g.Name()]; ok {
			old.close()
		}
		s.entries[g.Name()] = &entry{gallery: g}
	}
}

// Names returns the served gallery names in sorted order.
func (s *Server) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gallery returns the served gallery called name.
func (s *Server) Gallery(name string) (*gallery.Gallery, bool) {
	e, ok := s.entry(name)
	if !ok {
		return nil, false
	}
	return e.gallery, true
}

func (s *Server) entry(name string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	return e, ok
}

// Close releases the search indexes.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.close()
	}
	return nil
}

// Handler returns the router with the middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.requestTimeout))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/galleries", s.handleGalleries)
		r.Route("/galleries/{name}", func(r chi.Router) {
			r.Get("/categories", s.handleCategories)
			r.Get("/records", s.handleRecords)
			r.Get("/records/{id}", s.handleRecord)
			r.Get("/window", s.handleWindow)
			r.Get("/search", s.handleSearch)
		})
		r.Get("/unlock", s.handleUnlockStatus)
		r.Post("/unlock", s.handleUnlock)
		r.Delete("/unlock", s.handleLock)
		r.Get("/prefs/{key}", s.handleGetPref)
		r.Put("/prefs/{key}", s.handlePutPref)
		r.Delete("/prefs/{key}", s.handleDeletePref)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
