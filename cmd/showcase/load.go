package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/database"
	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/gate"
	"github.com/nao1215/showcase/internal/loader"
	applog "github.com/nao1215/showcase/internal/log"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/pipeline"
	"github.com/nao1215/showcase/internal/report"
	"github.com/nao1215/showcase/internal/speech"
)

// loadSettings builds the runtime configuration from defaults, .env, the
// environment, the config file and the global flags.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnvFile(""); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := config.NewConfig()
	cfg.ApplyEnv()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	if path := getStringFlag(cmd, "config"); path != "" {
		cfg.ConfigFilePath = path
	}

	// An explicitly named config file must exist. Otherwise a missing file
	// means no galleries.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Galleries = file
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.Galleries = &config.File{Galleries: make(map[string]config.Gallery)}
	}

	if addr := cfg.Galleries.Server.Addr; addr != "" && os.Getenv(config.EnvAddr) == "" {
		cfg.Addr = addr
	}
	return cfg, nil
}

// getBoolFlag reads a flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getStringFlag reads a flag from the command or the root's persistent flags.
func getStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// newLogger returns the CLI logger. Logs go to stderr so reports on stdout
// stay clean.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
}

func newFetcher(cfg *config.Config) *loader.Fetcher {
	return loader.NewFetcher(
		loader.WithTimeout(cfg.Timeout),
		loader.WithMaxBodySize(cfg.MaxBodySize),
		loader.WithUserAgent(cfg.UserAgent),
	)
}

// loadReports loads the named galleries, or every configured gallery when
// names is empty. Failed loads are returned with their Error set.
func loadReports(ctx context.Context, cfg *config.Config, logger *slog.Logger, names ...string) ([]*model.LoadReport, error) {
	jobs, err := pipeline.JobsFromFile(cfg.Galleries, names...)
	if err != nil {
		return nil, err
	}

	fetcher := newFetcher(cfg)
	bp := pipeline.NewBatchProcessor(
		func(def config.Gallery) *pipeline.Pipeline {
			return pipeline.GalleryPipeline(def, fetcher, pipeline.WithLogger(logger))
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	return bp.ProcessBatch(ctx, jobs)
}

// loadOne loads a single gallery.
func loadOne(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) (*model.LoadReport, error) {
	if cfg.Galleries == nil || len(cfg.Galleries.Galleries) == 0 {
		return nil, config.ErrNoGalleries
	}
	def, ok := cfg.Galleries.GetGallery(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (configured: %v)", config.ErrUnknownGallery, name, cfg.Galleries.Names())
	}
	rep, err := pipeline.LoadGallery(ctx, name, def, newFetcher(cfg), pipeline.WithLogger(logger))
	if err != nil {
		logger.Warn("gallery load failed", "gallery", name, "error", err)
	}
	return rep, nil
}

// newGallery builds the view state for a load report. Bodies of gated
// galleries are hidden while g is locked.
func newGallery(cfg *config.Config, rep *model.LoadReport, g *gate.Gate, modalOpts ...detail.Option) (*gallery.Gallery, error) {
	def, _ := cfg.Galleries.GetGallery(rep.Gallery)
	engine, err := markdown.New(cfg.Galleries.Markdown)
	if err != nil {
		return nil, err
	}

	var lock []gallery.Option
	if def.Gated && g != nil && g.Enabled() {
		modalOpts = append(modalOpts, detail.WithLock(g.Locked))
		lock = append(lock, gallery.WithLock(g.Locked))
	}
	opts := append([]gallery.Option{
		gallery.WithDefinition(def),
		gallery.WithEngine(engine),
		gallery.WithModalOptions(modalOpts...),
	}, lock...)
	if rep.Failed() {
		return gallery.NewFailed(rep.Gallery, errors.New(rep.Error), opts...), nil
	}
	return gallery.New(rep.Gallery, rep.Collection, opts...), nil
}

// openDB opens the preference database in the data directory.
func openDB(cfg *config.Config) (*database.PrefDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// saveReports stores load reports for 'showcase history'. Failures are
// logged, not returned.
func saveReports(ctx context.Context, db *database.PrefDB, reports []*model.LoadReport, logger *slog.Logger) {
	if db == nil {
		return
	}
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		if err := db.SaveLoadReport(ctx, rep); err != nil {
			logger.Error("failed to save load report", "gallery", rep.Gallery, "error", err)
			continue
		}
		logger.Debug("load report saved", "gallery", rep.Gallery, "id", rep.ID)
	}
}

// newGate returns the reading gate. A plain-text password from the
// environment is hashed when the config file has no hash.
func newGate(cfg *config.Config, store gate.Store) (*gate.Gate, error) {
	gc := cfg.Galleries.Gate
	if gc.PasswordHash == "" && cfg.GatePassword != "" {
		hash, err := gate.HashPassword(cfg.GatePassword)
		if err != nil {
			return nil, err
		}
		gc.PasswordHash = hash
	}
	return gate.New(gc, store), nil
}

// newPlayer returns a speech player configured from the voice preferences,
// or nil when no speech engine is installed.
func newPlayer(ctx context.Context, db *database.PrefDB, logger *slog.Logger) *speech.Player {
	var opts []speech.Option
	if db != nil {
		if v, ok, err := db.GetPreference(ctx, database.KeyVoiceRate); err == nil && ok {
			if rate, err := strconv.ParseFloat(v, 64); err == nil {
				opts = append(opts, speech.WithRate(rate))
			}
		}
		if v, ok, err := db.GetPreference(ctx, database.KeyVoiceName); err == nil && ok {
			opts = append(opts, speech.WithVoice(v))
		}
	}
	speaker, err := speech.NewCommandSpeaker(opts...)
	if err != nil {
		logger.Debug("read aloud disabled", "error", err)
		return nil
	}
	return speech.NewPlayer(speaker, logger)
}

// addReportFlags adds the output format flags shared by report commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// readReportFlags copies the output format flags into cfg.
func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// openOutput returns the report destination and a function closing it.
// Report files are created with owner-only permissions.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the writer for the selected format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}
