package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "showcase"

	// DefaultAddr is the listen address of the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultTimeout bounds a single source fetch. Sources are fetched once,
	// so a slow source fails fast and shows the error view.
	DefaultTimeout = 15 * time.Second

	// DefaultBatchSize is the number of galleries loaded concurrently.
	DefaultBatchSize = 4

	// DefaultMaxBodySize caps the size of a source document.
	DefaultMaxBodySize = 16 * 1024 * 1024

	// DefaultPageSize is the number of cards per page.
	DefaultPageSize = 12

	// MaxPageSize caps page sizes requested by clients.
	MaxPageSize = 200

	// DefaultWindowThreshold is the record count above which lists are
	// rendered through a scroll window.
	DefaultWindowThreshold = 200

	// DefaultItemHeight is the card height, in rows or pixels, used by
	// the scroll window.
	DefaultItemHeight = 120

	// DefaultGateTTL is how long a successful unlock lasts.
	DefaultGateTTL = 7 * 24 * time.Hour

	// DefaultLinkCheckConcurrency is the number of parallel link checks.
	DefaultLinkCheckConcurrency = 8

	// DefaultUserAgent is sent with remote source fetches and link checks.
	DefaultUserAgent = "showcase/1.0 (+https://github.com/nao1215/showcase)"

	// DBFileName is the preference database file name.
	DBFileName = "showcase.db"
)

// Config holds the runtime options of a showcase command.
// It is filled from defaults, the config file, the environment and CLI
// flags, in that order, and passed down explicitly.
type Config struct {
	// ConfigFilePath is the YAML file to read. Empty means search for
	// .showcase in the current and home directories.
	ConfigFilePath string

	// Galleries holds the parsed config file.
	Galleries *File

	// Addr is the HTTP listen address.
	Addr string

	// Timeout bounds a single source fetch.
	Timeout time.Duration

	// BatchSize is the number of galleries loaded concurrently.
	BatchSize int

	// MaxBodySize caps the size of a fetched source document.
	MaxBodySize int64

	// UserAgent is sent with HTTP requests.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile writes output to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the preference database. Empty disables
	// persistence of load reports.
	DBDir string

	// Watch reloads galleries when their source files change.
	Watch bool

	// GatePassword is a plain-text gate password from the environment. It
	// is hashed at startup when the config file carries no hash.
	GatePassword string
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Addr:        DefaultAddr,
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/showcase.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/showcase.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DBPath returns the preference database path, or "" when DBDir is empty.
func (c *Config) DBPath() string {
	if c.DBDir == "" {
		return ""
	}
	return filepath.Join(c.DBDir, DBFileName)
}

// Validate checks the runtime options. Gallery definitions are checked by
// File.Validate.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// ValidateGalleries checks that galleries are configured and valid.
func (c *Config) ValidateGalleries() error {
	if c.Galleries == nil || len(c.Galleries.Galleries) == 0 {
		return ErrNoGalleries
	}
	return c.Galleries.Validate()
}

// ClampPageSize returns n limited to [1, MaxPageSize], or def when n <= 0.
func ClampPageSize(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n <= 0 {
		n = DefaultPageSize
	}
	if n > MaxPageSize {
		n = MaxPageSize
	}
	return n
}
