package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/model"
)

// Known preference keys.
const (
	// KeyGreetingDismissed is set once the welcome notice was dismissed.
	KeyGreetingDismissed = "greeting.dismissed"
	// KeyReadingUnlockedUntil holds the reading gate expiry (RFC 3339).
	KeyReadingUnlockedUntil = "reading.unlocked_until"
	// KeyVoiceRate is the speech rate relative to normal speed.
	KeyVoiceRate = "voice.rate"
	// KeyVoiceName is the speech voice name.
	KeyVoiceName = "voice.name"
)

// ErrInvalidKey is returned for empty or oversized preference keys.
var ErrInvalidKey = errors.New("invalid preference key")

// maxKeyLength bounds preference keys.
const maxKeyLength = 128

// PrefDB stores preferences and load reports in SQLite.
type PrefDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures PrefDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database in dbDir.
func Open(dbDir string, opts Options) (*PrefDB, error) {
	dbPath := filepath.Join(dbDir, config.DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pdb := &PrefDB{db: db, dbPath: dbPath, now: now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pdb, nil
}

// Path returns the database file path.
func (pdb *PrefDB) Path() string { return pdb.dbPath }

// Close closes the database connection.
func (pdb *PrefDB) Close() error {
	return pdb.db.Close()
}

func (pdb *PrefDB) createTables() error {
	schema := `
	-- Preferences are small flags; expired rows read as absent
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at TEXT,
		updated_at TEXT NOT NULL
	);

	-- Load reports record every gallery load for history comparison
	CREATE TABLE IF NOT EXISTS load_reports (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		gallery TEXT NOT NULL,
		source TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		category_counts TEXT,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_gallery ON load_reports(gallery);
	`

	_, err := pdb.db.ExecContext(context.Background(), schema)
	return err
}

// Preference is one stored flag.
type Preference struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	// ExpiresAt is zero for values that never expire.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at"`
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" || len(key) > maxKeyLength {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// SetPreference stores value under key. A positive ttl makes the value
// expire; zero keeps it until deleted.
func (pdb *PrefDB) SetPreference(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validKey(key); err != nil {
		return err
	}
	now := pdb.now().UTC()
	var expires sql.NullString
	if ttl > 0 {
		expires = sql.NullString{String: formatTimestamp(now.Add(ttl)), Valid: true}
	}

	query := `
	INSERT INTO preferences (key, value, expires_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at
	`
	if _, err := pdb.db.ExecContext(ctx, query, key, value, expires, formatTimestamp(now)); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// GetPreference returns the value of key. Missing and expired keys report
// false.
func (pdb *PrefDB) GetPreference(ctx context.Context, key string) (string, bool, error) {
	p, ok, err := pdb.getPreference(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return p.Value, true, nil
}

func (pdb *PrefDB) getPreference(ctx context.Context, key string) (Preference, bool, error) {
	query := `SELECT key, value, expires_at, updated_at FROM preferences WHERE key = ?`

	var p Preference
	var expires sql.NullString
	var updated string
	err := pdb.db.QueryRowContext(ctx, query, key).Scan(&p.Key, &p.Value, &expires, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Preference{}, false, nil
	}
	if err != nil {
		return Preference{}, false, fmt.Errorf("failed to get preference: %w", err)
	}
	p.UpdatedAt = parseTimestamp(updated)
	if expires.Valid {
		p.ExpiresAt = parseTimestamp(expires.String)
		if !pdb.now().Before(p.ExpiresAt) {
			return Preference{}, false, nil
		}
	}
	return p, true, nil
}

// DeletePreference removes key. Deleting a missing key is not an error.
func (pdb *PrefDB) DeletePreference(ctx context.Context, key string) error {
	if _, err := pdb.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// ListPreferences returns the unexpired preferences ordered by key.
func (pdb *PrefDB) ListPreferences(ctx context.Context) ([]Preference, error) {
	rows, err := pdb.db.QueryContext(ctx, `SELECT key, value, expires_at, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	now := pdb.now()
	var prefs []Preference
	for rows.Next() {
		var p Preference
		var expires sql.NullString
		var updated string
		if err := rows.Scan(&p.Key, &p.Value, &expires, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		p.UpdatedAt = parseTimestamp(updated)
		if expires.Valid {
			p.ExpiresAt = parseTimestamp(expires.String)
			if !now.Before(p.ExpiresAt) {
				continue
			}
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// PurgeExpired deletes expired preferences and returns how many were
// removed.
func (pdb *PrefDB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := pdb.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		formatTimestamp(pdb.now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge preferences: %w", err)
	}
	return res.RowsAffected()
}

// SaveLoadReport stores a load report.
func (pdb *PrefDB) SaveLoadReport(ctx context.Context, report *model.LoadReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	countsJSON, err := json.Marshal(report.CategoryCounts)
	if err != nil {
		return fmt.Errorf("failed to serialize category counts: %w", err)
	}

	query := `
	INSERT INTO load_reports (id, gallery, source, timestamp, record_count, category_counts, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = pdb.db.ExecContext(ctx, query,
		report.ID,
		report.Gallery,
		report.Source,
		formatTimestamp(report.StartedAt.UTC()),
		report.RecordCount,
		string(countsJSON),
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save load report: %w", err)
	}
	return nil
}

// LoadReportMetadata summarizes a stored report without its fingerprints.
type LoadReportMetadata struct {
	ID             string
	Gallery        string
	Source         string
	Timestamp      time.Time
	RecordCount    int
	CategoryCounts map[string]int
	Error          string
}

// ListLoadReports returns report metadata for gallery, newest first.
func (pdb *PrefDB) ListLoadReports(ctx context.Context, gallery string) ([]LoadReportMetadata, error) {
	query := `
	SELECT id, gallery, source, timestamp, record_count, category_counts, error
	FROM load_reports
	WHERE gallery = ?
	ORDER BY seq DESC
	`
	rows, err := pdb.db.QueryContext(ctx, query, gallery)
	if err != nil {
		return nil, fmt.Errorf("failed to list load reports: %w", err)
	}
	defer rows.Close()

	var results []LoadReportMetadata
	for rows.Next() {
		var meta LoadReportMetadata
		var timestamp string
		var counts, loadErr sql.NullString
		if err := rows.Scan(&meta.ID, &meta.Gallery, &meta.Source, &timestamp, &meta.RecordCount, &counts, &loadErr); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		meta.Error = loadErr.String
		meta.CategoryCounts = make(map[string]int)
		if counts.Valid && counts.String != "" {
			if err := json.Unmarshal([]byte(counts.String), &meta.CategoryCounts); err != nil {
				meta.CategoryCounts = make(map[string]int)
			}
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetLoadReportByID returns the report with id, or nil when absent.
func (pdb *PrefDB) GetLoadReportByID(ctx context.Context, id string) (*model.LoadReport, error) {
	return pdb.queryReport(ctx, `SELECT report_json FROM load_reports WHERE id = ?`, id)
}

// GetLatestLoadReport returns the newest report for gallery, or nil.
func (pdb *PrefDB) GetLatestLoadReport(ctx context.Context, gallery string) (*model.LoadReport, error) {
	return pdb.queryReport(ctx, `SELECT report_json FROM load_reports WHERE gallery = ? ORDER BY seq DESC LIMIT 1`, gallery)
}

func (pdb *PrefDB) queryReport(ctx context.Context, query string, arg any) (*model.LoadReport, error) {
	var reportJSON string
	err := pdb.db.QueryRowContext(ctx, query, arg).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load report: %w", err)
	}

	var report model.LoadReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetLoadHistory returns every report for gallery, newest first. Malformed
// rows are skipped.
func (pdb *PrefDB) GetLoadHistory(ctx context.Context, gallery string) ([]*model.LoadReport, error) {
	rows, err := pdb.db.QueryContext(ctx,
		`SELECT report_json FROM load_reports WHERE gallery = ? ORDER BY seq DESC`, gallery)
	if err != nil {
		return nil, fmt.Errorf("failed to get load history: %w", err)
	}
	defer rows.Close()

	var reports []*model.LoadReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		var report model.LoadReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// ListGalleries returns the names of galleries with stored reports.
func (pdb *PrefDB) ListGalleries(ctx context.Context) ([]string, error) {
	rows, err := pdb.db.QueryContext(ctx, `SELECT DISTINCT gallery FROM load_reports ORDER BY gallery`)
	if err != nil {
		return nil, fmt.Errorf("failed to list galleries: %w", err)
	}
	defer rows.Close()

	var galleries []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan gallery: %w", err)
		}
		galleries = append(galleries, g)
	}
	return galleries, rows.Err()
}

// timestampLayout sorts lexicographically in time order.
const timestampLayout = "2006-01-02 15:04:05.000000000"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp as UTC, returning the zero time
// when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
