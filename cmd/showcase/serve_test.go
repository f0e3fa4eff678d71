package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/showcase/internal/server"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	for flag, shorthand := range map[string]string{"addr": "a", "watch": "w", "batch": "b", "timeout": "t"} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
}

func TestServedLoader(t *testing.T) {
	env := newTestEnv(t, "")
	cfg, err := settingsFor(t, "-C", env.config)
	if err != nil {
		t.Fatal(err)
	}
	db, err := openDB(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	g, err := newGate(cfg, db)
	if err != nil {
		t.Fatal(err)
	}

	srv := server.New()
	sl := &servedLoader{cfg: cfg, db: db, gate: g, srv: srv, logger: discardLogger()}

	t.Run("load fills the server", func(t *testing.T) {
		if err := sl.load(t.Context()); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if diff := cmp.Diff([]string{"prompts"}, srv.Names()); diff != "" {
			t.Errorf("served galleries mismatch (-want +got):\n%s", diff)
		}
		rep, err := db.GetLatestLoadReport(t.Context(), "prompts")
		if err != nil || rep == nil {
			t.Fatalf("expected a stored load report, got %v (%v)", rep, err)
		}
		if rep.RecordCount != 5 {
			t.Errorf("stored record count = %d, want 5", rep.RecordCount)
		}
	})

	t.Run("watcher covers local sources", func(t *testing.T) {
		w, err := sl.watcher()
		if err != nil {
			t.Fatalf("watcher failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("close failed: %v", err)
		}
	})
}
