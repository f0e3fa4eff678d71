package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/showcase/internal/model"
)

func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title text links and images", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><title>Story</title><style>p{}</style></head><body>
			<h1>Heading</h1>
			<p>The quick <b>brown</b> fox.</p>
			<script>var hidden = 1;</script>
			<a href="/next">next</a> <a href="/next">again</a>
			<a href="mailto:x@example.com">mail</a>
			<img src="img/a.png">
		</body></html>`

		parser, err := NewParser("https://example.com/stories/")
		if err != nil {
			t.Fatalf("NewParser() error = %v", err)
		}
		result, err := parser.Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		if result.Title != "Story" {
			t.Errorf("Title = %q", result.Title)
		}
		if strings.Contains(result.Text, "hidden") || strings.Contains(result.Text, "p{}") {
			t.Errorf("Text contains script or style: %q", result.Text)
		}
		if !strings.Contains(result.Text, "The quick brown fox.") {
			t.Errorf("Text = %q", result.Text)
		}
		if diff := cmp.Diff([]string{"https://example.com/next"}, result.Links); diff != "" {
			t.Errorf("links (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"https://example.com/stories/img/a.png"}, result.Images); diff != "" {
			t.Errorf("images (-want +got):\n%s", diff)
		}
	})

	t.Run("falls back to the first h1 as title", func(t *testing.T) {
		t.Parallel()

		p, _ := NewParser("")
		result, err := p.Parse(strings.NewReader("<h1> Only heading </h1><p>x</p>"))
		if err != nil {
			t.Fatal(err)
		}
		if result.Title != "Only heading" {
			t.Errorf("Title = %q", result.Title)
		}
	})
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text collapses whitespace", in: "a \n\n b", want: "a b"},
		{name: "html is stripped", in: "<p>Hello <em>world</em></p><p>again</p>", want: "Hello world again"},
		{name: "entities are decoded", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTargetsFromRecords(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		{ID: 1, URL: "https://a.example/"},
		{ID: 2, URL: "ftp://files.example/"},
		{ID: 3, Body: `<p><a href="https://b.example/x">b</a> <a href="/rel">rel</a></p>`},
	}
	want := []LinkTarget{
		{RecordID: 1, URL: "https://a.example/"},
		{RecordID: 3, URL: "https://b.example/x"},
	}
	if diff := cmp.Diff(want, TargetsFromRecords(records)); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}
}

func TestLinkChecker(t *testing.T) {
	t.Parallel()

	var headRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			headRequests.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/nohead", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("body"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	checker := NewLinkChecker(srv.Client(), WithConcurrency(2), WithIgnorePatterns([]string{"*.pdf"}))
	targets := []LinkTarget{
		{RecordID: 1, URL: srv.URL + "/ok"},
		{RecordID: 2, URL: srv.URL + "/gone"},
		{RecordID: 3, URL: srv.URL + "/nohead"},
		{RecordID: 4, URL: srv.URL + "/manual.pdf"},
		{RecordID: 5, URL: srv.URL + "/ok#section"},
	}

	results, err := checker.CheckAll(context.Background(), targets)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results (pdf ignored), got %d", len(results))
	}

	byRecord := make(map[int]LinkResult)
	for _, r := range results {
		byRecord[r.RecordID] = r
	}
	if !byRecord[1].OK || byRecord[1].StatusCode != http.StatusOK {
		t.Errorf("/ok result = %+v", byRecord[1])
	}
	if byRecord[2].OK || byRecord[2].StatusCode != http.StatusNotFound {
		t.Errorf("/gone result = %+v", byRecord[2])
	}
	if !byRecord[3].OK {
		t.Errorf("/nohead should fall back to GET: %+v", byRecord[3])
	}
	if !byRecord[5].OK || byRecord[5].URL != srv.URL+"/ok#section" {
		t.Errorf("fragment variant result = %+v", byRecord[5])
	}
	if headRequests.Load() > 2 {
		t.Errorf("expected cached /ok checks, got %d HEAD requests", headRequests.Load())
	}
}

func TestLinkCheckerCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewLinkChecker(nil)
	_, err := checker.CheckAll(ctx, []LinkTarget{{RecordID: 1, URL: "http://127.0.0.1:1/"}})
	if err == nil {
		t.Error("expected context error")
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/file.pdf", true},
		{"*.pdf", "/docs/file.html", false},
		{"/api/v?", "/api/v1", true},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}
