package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/database"
	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/gate"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/render"
)

// memPrefs is an in-memory preference store.
type memPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemPrefs() *memPrefs {
	return &memPrefs{values: make(map[string]string)}
}

func (m *memPrefs) SetPreference(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memPrefs) GetPreference(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memPrefs) DeletePreference(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func prompts() *model.Collection {
	return model.NewCollection("prompts", []model.Record{
		{Title: "Summarize", Category: "Writing", Body: "Summarize the text in three sentences."},
		{Title: "Fox story", Category: "Fiction", Body: "A quick brown fox jumps at night."},
		{Title: "Translate", Category: "Writing", Body: "Translate into **French**."},
		{Title: "Owl story", Category: "Fiction", Body: "Owls hunt at night."},
		{Title: "Outline", Category: "Writing", Body: "Outline an essay."},
	}, time.Now())
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s := New(opts...)
	t.Cleanup(func() { _ = s.Close() })
	s.Update(
		gallery.New("prompts", prompts(), gallery.WithDefinition(config.Gallery{Title: "Prompts", PageSize: 2})),
		gallery.NewFailed("broken", errors.New("load broken: fetch: no such file")),
	)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return v
}

func cardTitles(cards []model.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Title
	}
	return out
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "ok" {
		t.Errorf("GET /healthz = %d %q", rr.Code, rr.Body.String())
	}
}

func TestGalleries(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/galleries", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	got := decode[galleriesResponse](t, rr)
	want := galleriesResponse{Galleries: []galleryInfo{
		{Name: "broken", Title: "broken", State: model.ListingLoadError, Error: "load broken: fetch: no such file"},
		{Name: "prompts", Title: "Prompts", Records: 5, Categories: 2, State: model.ListingOK},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("galleries mismatch (-want +got):\n%s", diff)
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/galleries/prompts/categories", "")
	got := decode[categoriesResponse](t, rr)
	if diff := cmp.Diff(model.CategoryIndex{"all", "Writing", "Fiction"}, got.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if got.Counts["Writing"] != 3 || got.Counts["Fiction"] != 2 {
		t.Errorf("counts = %v", got.Counts)
	}
}

func TestRecords(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	tests := []struct {
		name   string
		path   string
		titles []string
		more   bool
		state  model.ListingState
	}{
		{
			name:   "first page uses the gallery page size",
			path:   "/api/galleries/prompts/records",
			titles: []string{"Summarize", "Fox story"},
			more:   true,
			state:  model.ListingOK,
		},
		{
			name:   "append mode shows every page up to page",
			path:   "/api/galleries/prompts/records?page=2",
			titles: []string{"Summarize", "Fox story", "Translate", "Owl story"},
			more:   true,
			state:  model.ListingOK,
		},
		{
			name:   "page mode shows only the page",
			path:   "/api/galleries/prompts/records?page=2&mode=page",
			titles: []string{"Translate", "Owl story"},
			more:   true,
			state:  model.ListingOK,
		},
		{
			name:   "category and keyword combine",
			path:   "/api/galleries/prompts/records?category=Fiction&q=NIGHT&size=10",
			titles: []string{"Fox story", "Owl story"},
			state:  model.ListingOK,
		},
		{
			name:   "no match is the empty state",
			path:   "/api/galleries/prompts/records?q=zebra",
			titles: []string{},
			state:  model.ListingEmpty,
		},
		{
			name:   "failed gallery answers with the load error state",
			path:   "/api/galleries/broken/records",
			titles: []string{},
			state:  model.ListingLoadError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := do(t, h, http.MethodGet, tt.path, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			l := decode[model.Listing](t, rr)
			if diff := cmp.Diff(tt.titles, cardTitles(l.Cards)); diff != "" {
				t.Errorf("cards mismatch (-want +got):\n%s", diff)
			}
			if l.HasMore != tt.more || l.State != tt.state {
				t.Errorf("has_more %v state %s, want %v %s", l.HasMore, l.State, tt.more, tt.state)
			}
		})
	}

	t.Run("bad requests", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{
			"/api/galleries/prompts/records?mode=infinite",
			"/api/galleries/prompts/records?page=-1",
			"/api/galleries/prompts/records?size=ten",
		} {
			rr := do(t, h, http.MethodGet, path, "")
			if rr.Code != http.StatusBadRequest {
				t.Errorf("GET %s = %d, want 400", path, rr.Code)
			}
			if got := decode[errorResponse](t, rr); got.Error != codeBadRequest {
				t.Errorf("GET %s error code = %q", path, got.Error)
			}
		}
	})

	t.Run("unknown gallery", func(t *testing.T) {
		t.Parallel()

		rr := do(t, h, http.MethodGet, "/api/galleries/missing/records", "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestWindow(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/galleries/prompts/window?category=Writing&offset=0&viewport=600", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	got := decode[render.Slice](t, rr)
	if got.Windowed || got.Total != 3 || got.End != 3 {
		t.Errorf("window = %+v", got)
	}
	if diff := cmp.Diff([]string{"Summarize", "Translate", "Outline"}, cardTitles(got.Cards)); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	t.Run("ranked hits", func(t *testing.T) {
		t.Parallel()

		rr := do(t, h, http.MethodGet, "/api/galleries/prompts/search?q=night", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		got := decode[searchResponse](t, rr)
		titles := make([]string, len(got.Hits))
		for i, hit := range got.Hits {
			titles[i] = hit.Record.Title
		}
		if len(titles) != 2 || !strings.Contains(strings.Join(titles, ","), "Owl story") {
			t.Errorf("hits = %v", titles)
		}
	})

	t.Run("category post-filter", func(t *testing.T) {
		t.Parallel()

		rr := do(t, h, http.MethodGet, "/api/galleries/prompts/search?q=story&category=Writing", "")
		if got := decode[searchResponse](t, rr); len(got.Hits) != 0 {
			t.Errorf("hits = %+v", got.Hits)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()

		rr := do(t, h, http.MethodGet, "/api/galleries/prompts/search?q=+", "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("failed gallery has no hits", func(t *testing.T) {
		t.Parallel()

		rr := do(t, h, http.MethodGet, "/api/galleries/broken/search?q=night", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if got := decode[searchResponse](t, rr); len(got.Hits) != 0 {
			t.Errorf("hits = %+v", got.Hits)
		}
	})
}

func TestRecord(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	t.Run("renders the body", func(t *testing.T) {
		t.Parallel()

		rr := do(t, h, http.MethodGet, "/api/galleries/prompts/records/3", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		v := decode[detail.View](t, rr)
		if v.Record.Title != "Translate" || !strings.Contains(v.BodyHTML, "<strong>French</strong>") {
			t.Errorf("view = %+v", v)
		}
		if diff := cmp.Diff([]string{"Writing"}, v.Badges); diff != "" {
			t.Errorf("badges mismatch (-want +got):\n%s", diff)
		}
	})

	for _, tt := range []struct {
		name string
		path string
		code int
	}{
		{"unknown id", "/api/galleries/prompts/records/99", http.StatusNotFound},
		{"non-numeric id", "/api/galleries/prompts/records/abc", http.StatusBadRequest},
		{"failed gallery", "/api/galleries/broken/records/1", http.StatusNotFound},
		{"unknown gallery", "/api/galleries/missing/records/1", http.StatusNotFound},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if rr := do(t, h, http.MethodGet, tt.path, ""); rr.Code != tt.code {
				t.Errorf("GET %s = %d, want %d", tt.path, rr.Code, tt.code)
			}
		})
	}
}

func TestGatedRecord(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	g := gate.New(config.GateConfig{PasswordHash: string(hash)}, newMemPrefs())
	s := New(WithGate(g))
	t.Cleanup(func() { _ = s.Close() })
	s.Update(gallery.New("diary", prompts(), gallery.WithDefinition(config.Gallery{Gated: true})))
	h := s.Handler()

	if rr := do(t, h, http.MethodGet, "/api/galleries/diary/records/1", ""); rr.Code != http.StatusForbidden {
		t.Fatalf("locked record = %d, want 403", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/galleries/diary/records/1", ""); decode[errorResponse](t, rr).Error != codeLocked {
		t.Errorf("locked error code = %q", rr.Body.String())
	}

	rr := do(t, h, http.MethodGet, "/api/galleries/diary/search?q=night", "")
	for _, hit := range decode[searchResponse](t, rr).Hits {
		if hit.Record.Body != "" {
			t.Errorf("locked search leaked body of %q", hit.Record.Title)
		}
	}

	if rr := do(t, h, http.MethodPost, "/api/unlock", `{"password":"guess"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/unlock", `not json`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/unlock", `{"password":"open sesame"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unlock = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[unlockResponse](t, rr); !got.Unlocked || got.Until == nil {
		t.Errorf("unlock response = %+v", got)
	}
	if rr := do(t, h, http.MethodGet, "/api/unlock", ""); !decode[unlockResponse](t, rr).Unlocked {
		t.Errorf("status after unlock = %s", rr.Body.String())
	}
	if rr := do(t, h, http.MethodGet, "/api/galleries/diary/records/1", ""); rr.Code != http.StatusOK {
		t.Errorf("unlocked record = %d, want 200", rr.Code)
	}

	if rr := do(t, h, http.MethodDelete, "/api/unlock", ""); rr.Code != http.StatusNoContent {
		t.Errorf("lock = %d, want 204", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/galleries/diary/records/1", ""); rr.Code != http.StatusForbidden {
		t.Errorf("relocked record = %d, want 403", rr.Code)
	}
}

func TestGatedListing(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	g := gate.New(config.GateConfig{PasswordHash: string(hash)}, newMemPrefs())
	s := New(WithGate(g))
	t.Cleanup(func() { _ = s.Close() })
	s.Update(gallery.New("diary", prompts(),
		gallery.WithDefinition(config.Gallery{Gated: true}),
		gallery.WithLock(g.Locked)))
	h := s.Handler()

	excerpts := func(cards []model.Card) int {
		n := 0
		for _, c := range cards {
			if c.Excerpt != "" {
				n++
			}
		}
		return n
	}

	rr := do(t, h, http.MethodGet, "/api/galleries/diary/records", "")
	if n := excerpts(decode[model.Listing](t, rr).Cards); n != 0 {
		t.Errorf("locked listing has %d excerpts, want 0", n)
	}
	rr = do(t, h, http.MethodGet, "/api/galleries/diary/window?viewport=300", "")
	if n := excerpts(decode[render.Slice](t, rr).Cards); n != 0 {
		t.Errorf("locked window has %d excerpts, want 0", n)
	}
	rr = do(t, h, http.MethodGet, "/api/galleries/diary/records?q=quick+brown", "")
	if l := decode[model.Listing](t, rr); l.Matched != 0 {
		t.Errorf("locked keyword matched hidden bodies: %v", cardTitles(l.Cards))
	}
	rr = do(t, h, http.MethodGet, "/api/galleries/diary/records?q=owl", "")
	if diff := cmp.Diff([]string{"Owl story"}, cardTitles(decode[model.Listing](t, rr).Cards)); diff != "" {
		t.Errorf("locked title keyword mismatch (-want +got):\n%s", diff)
	}
	rr = do(t, h, http.MethodGet, "/api/galleries/diary/search?q=night", "")
	if hits := decode[searchResponse](t, rr).Hits; len(hits) != 0 {
		t.Errorf("locked search matched hidden bodies: %+v", hits)
	}

	if _, err := g.Unlock(t.Context(), "open sesame"); err != nil {
		t.Fatal(err)
	}
	rr = do(t, h, http.MethodGet, "/api/galleries/diary/records?q=quick+brown", "")
	l := decode[model.Listing](t, rr)
	if diff := cmp.Diff([]string{"Fox story"}, cardTitles(l.Cards)); diff != "" {
		t.Fatalf("unlocked keyword mismatch (-want +got):\n%s", diff)
	}
	if l.Cards[0].Excerpt == "" {
		t.Error("unlocked card has no excerpt")
	}
	rr = do(t, h, http.MethodGet, "/api/galleries/diary/search?q=night", "")
	if hits := decode[searchResponse](t, rr).Hits; len(hits) != 2 {
		t.Errorf("unlocked search = %+v, want 2 hits", hits)
	}
}

func TestSearchAfterReload(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	e, ok := s.entry("prompts")
	if !ok {
		t.Fatal("prompts entry missing")
	}
	if _, err := e.search("night", "", 10, false); err != nil {
		t.Fatalf("search before reload: %v", err)
	}

	// A request that looked up e before the reload must not reach the
	// released index.
	s.Update(gallery.New("prompts", prompts()))
	if _, err := e.search("night", "", 10, false); !errors.Is(err, errIndexClosed) {
		t.Errorf("search on replaced entry error = %v, want errIndexClosed", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, _ := s.entry("prompts")
			if _, err := e.search("owls", "", 10, false); err != nil && !errors.Is(err, errIndexClosed) {
				t.Errorf("concurrent search error = %v", err)
			}
		}()
	}
	s.Update(gallery.New("prompts", prompts()))
	wg.Wait()
}

func TestUnlockWithoutGate(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	if rr := do(t, h, http.MethodPost, "/api/unlock", `{"password":"x"}`); rr.Code != http.StatusConflict {
		t.Errorf("unlock = %d, want 409", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/unlock", ""); !decode[unlockResponse](t, rr).Unlocked {
		t.Errorf("status = %s", rr.Body.String())
	}
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	prefs := newMemPrefs()
	h := newTestServer(t, WithPreferences(prefs)).Handler()
	path := "/api/prefs/" + database.KeyGreetingDismissed

	if rr := do(t, h, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing preference = %d, want 404", rr.Code)
	}
	if rr := do(t, h, http.MethodPut, path, `{"value":"true","ttl":"24h"}`); rr.Code != http.StatusNoContent {
		t.Fatalf("put = %d: %s", rr.Code, rr.Body.String())
	}
	rr := do(t, h, http.MethodGet, path, "")
	if diff := cmp.Diff(prefResponse{Key: database.KeyGreetingDismissed, Value: "true"}, decode[prefResponse](t, rr)); diff != "" {
		t.Errorf("preference mismatch (-want +got):\n%s", diff)
	}
	if rr := do(t, h, http.MethodPut, path, `{"value":"true","ttl":"soon"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad ttl = %d, want 400", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, path, ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
		t.Errorf("deleted preference = %d, want 404", rr.Code)
	}

	t.Run("gate key is reserved", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/api/prefs/"+database.KeyReadingUnlockedUntil, `{"value":"2999-01-01T00:00:00Z"}`)
		if rr.Code != http.StatusForbidden {
			t.Errorf("put reserved key = %d, want 403", rr.Code)
		}
		if _, ok, _ := prefs.GetPreference(context.Background(), database.KeyReadingUnlockedUntil); ok {
			t.Error("reserved key was written")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		rr := do(t, newTestServer(t).Handler(), http.MethodGet, path, "")
		if rr.Code != http.StatusNotImplemented {
			t.Errorf("disabled prefs = %d, want 501", rr.Code)
		}
	})
}

func TestUpdateReplacesGallery(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	h := s.Handler()

	if rr := do(t, h, http.MethodGet, "/api/galleries/prompts/search?q=owls", ""); len(decode[searchResponse](t, rr).Hits) != 1 {
		t.Fatalf("search before reload = %s", rr.Body.String())
	}

	s.Update(gallery.New("prompts", model.NewCollection("prompts", []model.Record{
		{Title: "Only", Category: "Misc", Body: "nothing nocturnal"},
	}, time.Now())))

	if rr := do(t, h, http.MethodGet, "/api/galleries/prompts/search?q=owls", ""); len(decode[searchResponse](t, rr).Hits) != 0 {
		t.Errorf("search after reload = %s", rr.Body.String())
	}
	rr := do(t, h, http.MethodGet, "/api/galleries/prompts/records", "")
	if diff := cmp.Diff([]string{"Only"}, cardTitles(decode[model.Listing](t, rr).Cards)); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestNotFoundRoute(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/nope", "")
	if rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Error != codeNotFound {
		t.Errorf("GET /api/nope = %d %s", rr.Code, rr.Body.String())
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
