package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/showcase/internal/model"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*PrefDB, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts := DefaultOptions()
	opts.Now = c.Now
	db, err := Open(t.TempDir(), opts)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, c
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, "showcase.db")); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, "showcase.db") {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopening keeps data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if err := db.SetPreference(context.Background(), KeyVoiceName, "Ting-Ting", 0); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		v, ok, err := db.GetPreference(context.Background(), KeyVoiceName)
		if err != nil || !ok || v != "Ting-Ting" {
			t.Errorf("GetPreference() = %q, %v, %v", v, ok, err)
		}
	})
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set, get and overwrite", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		if err := db.SetPreference(ctx, KeyVoiceRate, "1.2", 0); err != nil {
			t.Fatal(err)
		}
		if err := db.SetPreference(ctx, KeyVoiceRate, "0.8", 0); err != nil {
			t.Fatal(err)
		}
		v, ok, err := db.GetPreference(ctx, KeyVoiceRate)
		if err != nil || !ok || v != "0.8" {
			t.Errorf("GetPreference() = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		if _, ok, err := db.GetPreference(ctx, "nope"); err != nil || ok {
			t.Errorf("GetPreference(nope) = %v, %v", ok, err)
		}
	})

	t.Run("expired values read as absent", func(t *testing.T) {
		t.Parallel()

		db, c := setupTestDB(t)
		if err := db.SetPreference(ctx, KeyReadingUnlockedUntil, "x", time.Hour); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := db.GetPreference(ctx, KeyReadingUnlockedUntil); !ok {
			t.Fatal("value missing before expiry")
		}
		c.Advance(time.Hour)
		if _, ok, _ := db.GetPreference(ctx, KeyReadingUnlockedUntil); ok {
			t.Error("expired value still readable")
		}
		prefs, err := db.ListPreferences(ctx)
		if err != nil || len(prefs) != 0 {
			t.Errorf("ListPreferences() = %v, %v", prefs, err)
		}
		n, err := db.PurgeExpired(ctx)
		if err != nil || n != 1 {
			t.Errorf("PurgeExpired() = %d, %v", n, err)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		t.Parallel()

		db, c := setupTestDB(t)
		_ = db.SetPreference(ctx, KeyVoiceName, "Alex", 0)
		_ = db.SetPreference(ctx, KeyGreetingDismissed, "true", 24*time.Hour)

		prefs, err := db.ListPreferences(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want := []Preference{
			{Key: KeyGreetingDismissed, Value: "true", ExpiresAt: c.Now().Add(24 * time.Hour), UpdatedAt: c.Now()},
			{Key: KeyVoiceName, Value: "Alex", UpdatedAt: c.Now()},
		}
		if diff := cmp.Diff(want, prefs); diff != "" {
			t.Errorf("ListPreferences() mismatch (-want +got):\n%s", diff)
		}

		if err := db.DeletePreference(ctx, KeyVoiceName); err != nil {
			t.Fatal(err)
		}
		if err := db.DeletePreference(ctx, KeyVoiceName); err != nil {
			t.Errorf("deleting a missing key = %v", err)
		}
		if _, ok, _ := db.GetPreference(ctx, KeyVoiceName); ok {
			t.Error("deleted key still present")
		}
	})

	t.Run("invalid keys", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		for _, key := range []string{"", "   ", string(make([]byte, 200))} {
			if err := db.SetPreference(ctx, key, "v", 0); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("SetPreference(%q) = %v", key, err)
			}
		}
	})
}

func newReport(gallery string, titles ...string) *model.LoadReport {
	records := make([]model.Record, len(titles))
	for i, title := range titles {
		records[i] = model.Record{Title: title, Category: "c", Body: title + " body"}
	}
	r := model.NewLoadReport(gallery, "/data/"+gallery+".json")
	r.Finish(model.NewCollection(gallery, records, time.Now()))
	return r
}

func TestLoadReports(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save and read back", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		report := newReport("poems", "a", "b")
		report.AddWarning("body file missing")
		if err := db.SaveLoadReport(ctx, report); err != nil {
			t.Fatal(err)
		}

		got, err := db.GetLoadReportByID(ctx, report.ID)
		if err != nil || got == nil {
			t.Fatalf("GetLoadReportByID() = %v, %v", got, err)
		}
		if got.RecordCount != 2 || got.Gallery != "poems" {
			t.Errorf("report = %+v", got)
		}
		if diff := cmp.Diff(report.Fingerprints, got.Fingerprints); diff != "" {
			t.Errorf("fingerprints mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"body file missing"}, got.Warnings); diff != "" {
			t.Errorf("warnings mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing report is nil", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		got, err := db.GetLoadReportByID(ctx, "missing")
		if err != nil || got != nil {
			t.Errorf("GetLoadReportByID(missing) = %v, %v", got, err)
		}
		latest, err := db.GetLatestLoadReport(ctx, "none")
		if err != nil || latest != nil {
			t.Errorf("GetLatestLoadReport(none) = %v, %v", latest, err)
		}
	})

	t.Run("history is newest first", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		first := newReport("poems", "a")
		second := newReport("poems", "a", "b")
		other := newReport("stories", "x")
		for _, r := range []*model.LoadReport{first, second, other} {
			if err := db.SaveLoadReport(ctx, r); err != nil {
				t.Fatal(err)
			}
		}

		metas, err := db.ListLoadReports(ctx, "poems")
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 2 || metas[0].ID != second.ID || metas[1].ID != first.ID {
			t.Errorf("ListLoadReports() = %+v", metas)
		}
		if metas[0].CategoryCounts["c"] != 2 {
			t.Errorf("CategoryCounts = %v", metas[0].CategoryCounts)
		}

		history, err := db.GetLoadHistory(ctx, "poems")
		if err != nil || len(history) != 2 || history[0].ID != second.ID {
			t.Errorf("GetLoadHistory() = %d reports, %v", len(history), err)
		}

		latest, err := db.GetLatestLoadReport(ctx, "poems")
		if err != nil || latest == nil || latest.ID != second.ID {
			t.Errorf("GetLatestLoadReport() = %v, %v", latest, err)
		}

		galleries, err := db.ListGalleries(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"poems", "stories"}, galleries); diff != "" {
			t.Errorf("ListGalleries() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failed loads are stored", func(t *testing.T) {
		t.Parallel()

		db, _ := setupTestDB(t)
		r := model.NewLoadReport("broken", "missing.json")
		r.Error = "open missing.json: no such file"
		r.Finish(nil)
		if err := db.SaveLoadReport(ctx, r); err != nil {
			t.Fatal(err)
		}
		metas, err := db.ListLoadReports(ctx, "broken")
		if err != nil || len(metas) != 1 || metas[0].Error == "" || metas[0].RecordCount != 0 {
			t.Errorf("ListLoadReports(broken) = %+v, %v", metas, err)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, s := range []string{"2025-01-02 03:04:05.000000000", "2025-01-02 03:04:05", "2025-01-02T03:04:05Z"} {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v", s, got)
		}
	}
	if !parseTimestamp("garbage").IsZero() {
		t.Error("garbage parsed")
	}
	if got := parseTimestamp(formatTimestamp(want)); !got.Equal(want) {
		t.Errorf("round trip = %v", got)
	}
}
