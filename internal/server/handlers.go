package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nao1215/showcase/internal/database"
	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/gate"
	"github.com/nao1215/showcase/internal/index"
	"github.com/nao1215/showcase/internal/model"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 64 * 1024

type galleryInfo struct {
	Name       string             `json:"name"`
	Title      string             `json:"title"`
	Records    int                `json:"records"`
	Categories int                `json:"categories"`
	Gated      bool               `json:"gated"`
	State      model.ListingState `json:"state"`
	Error      string             `json:"error,omitempty"`
}

type galleriesResponse struct {
	Galleries []galleryInfo `json:"galleries"`
}

type categoriesResponse struct {
	Gallery    string              `json:"gallery"`
	Categories model.CategoryIndex `json:"categories"`
	Counts     map[string]int      `json:"counts"`
}

type searchResponse struct {
	Gallery  string      `json:"gallery"`
	Query    string      `json:"query"`
	Category string      `json:"category"`
	Hits     []index.Hit `json:"hits"`
}

type unlockRequest struct {
	Password string `json:"password"`
}

type unlockResponse struct {
	Unlocked bool       `json:"unlocked"`
	Until    *time.Time `json:"until,omitempty"`
}

type prefRequest struct {
	Value string `json:"value"`
	// TTL is a Go duration such as "24h". Empty means no expiry.
	TTL string `json:"ttl,omitempty"`
}

type prefResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleGalleries(w http.ResponseWriter, _ *http.Request) {
	resp := galleriesResponse{Galleries: []galleryInfo{}}
	for _, name := range s.Names() {
		g, ok := s.Gallery(name)
		if !ok {
			continue
		}
		info := galleryInfo{
			Name:       name,
			Title:      g.Title(),
			Records:    g.Collection().Len(),
			Categories: len(g.Collection().CategoryCounts()),
			Gated:      g.Definition().Gated,
			State:      model.ListingOK,
		}
		switch {
		case g.Failed():
			info.State = model.ListingLoadError
			info.Error = g.Err().Error()
		case info.Records == 0:
			info.State = model.ListingEmpty
		}
		resp.Galleries = append(resp.Galleries, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// lookup resolves the {name} parameter, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	name := chi.URLParam(r, "name")
	e, ok := s.entry(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, codeNotFound, fmt.Sprintf("gallery %q not found", name))
		return nil, false
	}
	return e, true
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	c := e.gallery.Collection()
	writeJSON(w, http.StatusOK, categoriesResponse{
		Gallery:    e.gallery.Name(),
		Categories: c.Categories(),
		Counts:     c.CategoryCounts(),
	})
}

func filterFromQuery(r *http.Request) model.FilterState {
	q := r.URL.Query()
	return model.FilterState{Category: q.Get("category"), Keyword: q.Get("q")}.Normalized()
}

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	size, err := intParam(r, "size", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	listing, err := e.gallery.Query(gallery.Query{
		Filter:   filterFromQuery(r),
		Page:     page,
		PageSize: size,
		Mode:     r.URL.Query().Get("mode"),
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	viewport, err := intParam(r, "viewport", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e.gallery.QueryWindow(filterFromQuery(r), offset, viewport))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, err := intParam(r, "limit", index.DefaultLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	locked := e.gallery.Definition().Gated && !s.unlocked(r)
	hits, err := e.search(q.Get("q"), q.Get("category"), limit, locked)
	if err != nil {
		switch {
		case errors.Is(err, index.ErrEmptyQuery):
			writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		case errors.Is(err, errIndexClosed):
			writeError(w, r, http.StatusServiceUnavailable, codeSearchDisabled, "gallery is reloading")
		default:
			s.logger.Error("search", slog.String("gallery", e.gallery.Name()), slog.Any("error", err))
			writeError(w, r, http.StatusServiceUnavailable, codeSearchDisabled, "search index is not available")
		}
		return
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	if locked {
		for i := range hits {
			hits[i].Record.Body = ""
			hits[i].Record.Description = ""
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Gallery:  e.gallery.Name(),
		Query:    strings.TrimSpace(q.Get("q")),
		Category: filterFromQuery(r).Category,
		Hits:     hits,
	})
}

func (s *Server) unlocked(r *http.Request) bool {
	return s.gate == nil || s.gate.Unlocked(r.Context())
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "record id must be an integer")
		return
	}
	if _, found := e.gallery.Collection().Get(id); !found {
		writeError(w, r, http.StatusNotFound, codeNotFound, fmt.Sprintf("record %d not found", id))
		return
	}
	if e.gallery.Definition().Gated && !s.unlocked(r) {
		writeError(w, r, http.StatusForbidden, codeLocked, detail.ErrLocked.Error())
		return
	}
	v, err := e.gallery.Modal().Render(id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
			return
		}
		s.logger.Error("render record", slog.String("gallery", e.gallery.Name()), slog.Int("id", id), slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, codeInternal, "could not render record")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUnlockStatus(w http.ResponseWriter, r *http.Request) {
	if s.gate == nil || !s.gate.Enabled() {
		writeJSON(w, http.StatusOK, unlockResponse{Unlocked: true})
		return
	}
	until, ok, err := s.gate.Until(r.Context())
	if err != nil {
		s.logger.Error("read gate", slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, codeInternal, "could not read gate state")
		return
	}
	resp := unlockResponse{Unlocked: ok}
	if ok {
		resp.Until = &until
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if s.gate == nil || !s.gate.Enabled() {
		writeError(w, r, http.StatusConflict, codeGateDisabled, gate.ErrNoPassword.Error())
		return
	}
	var req unlockRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "request body must be JSON with a password")
		return
	}
	until, err := s.gate.Unlock(r.Context(), req.Password)
	switch {
	case errors.Is(err, gate.ErrWrongPassword):
		writeError(w, r, http.StatusUnauthorized, codeWrongPassword, err.Error())
		return
	case err != nil:
		s.logger.Error("unlock gate", slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, codeInternal, "could not unlock")
		return
	}
	s.logger.Info("gate unlocked", slog.Time("until", until))
	writeJSON(w, http.StatusOK, unlockResponse{Unlocked: true, Until: &until})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if s.gate == nil || !s.gate.Enabled() {
		writeError(w, r, http.StatusConflict, codeGateDisabled, gate.ErrNoPassword.Error())
		return
	}
	if err := s.gate.Lock(r.Context()); err != nil {
		s.logger.Error("lock gate", slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, codeInternal, "could not lock")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// prefsKey resolves the {key} parameter, writing an error when preferences
// are disabled.
func (s *Server) prefsKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.prefs == nil {
		writeError(w, r, http.StatusNotImplemented, codePrefsDisabled, "preferences are not stored")
		return "", false
	}
	key := chi.URLParam(r, "key")
	if key == database.KeyReadingUnlockedUntil && r.Method != http.MethodGet {
		writeError(w, r, http.StatusForbidden, codeReservedKey, "use /api/unlock to change the reading gate")
		return "", false
	}
	return key, true
}

func (s *Server) prefError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, database.ErrInvalidKey) {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.logger.Error(op+" preference", slog.Any("error", err))
	writeError(w, r, http.StatusInternalServerError, codeInternal, "preference store failed")
}

func (s *Server) handleGetPref(w http.ResponseWriter, r *http.Request) {
	key, ok := s.prefsKey(w, r)
	if !ok {
		return
	}
	value, found, err := s.prefs.GetPreference(r.Context(), key)
	if err != nil {
		s.prefError(w, r, "get", err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, codeNotFound, fmt.Sprintf("preference %q not set", key))
		return
	}
	writeJSON(w, http.StatusOK, prefResponse{Key: key, Value: value})
}

func (s *Server) handlePutPref(w http.ResponseWriter, r *http.Request) {
	key, ok := s.prefsKey(w, r)
	if !ok {
		return
	}
	var req prefRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "request body must be JSON with a value")
		return
	}
	var ttl time.Duration
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil || d < 0 {
			writeError(w, r, http.StatusBadRequest, codeBadRequest, "ttl must be a positive duration such as 24h")
			return
		}
		ttl = d
	}
	if err := s.prefs.SetPreference(r.Context(), key, req.Value, ttl); err != nil {
		s.prefError(w, r, "set", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePref(w http.ResponseWriter, r *http.Request) {
	key, ok := s.prefsKey(w, r)
	if !ok {
		return
	}
	if err := s.prefs.DeletePreference(r.Context(), key); err != nil {
		s.prefError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
