package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/database"
	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/gate"
	applog "github.com/nao1215/showcase/internal/log"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/server"
	"github.com/nao1215/showcase/internal/watch"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve galleries over HTTP",
		Long: `Serve loads every configured gallery and serves it as a read-only JSON API.

Each gallery is loaded once at startup. A gallery that fails to load keeps
serving its load_error state while the others work. With --watch, local
sources and body file directories are watched and reloaded on change.

Endpoints:
  GET  /healthz
  GET  /api/galleries
  GET  /api/galleries/{name}/categories
  GET  /api/galleries/{name}/records?category=&q=&page=&size=&mode=
  GET  /api/galleries/{name}/window?category=&q=&offset=&viewport=
  GET  /api/galleries/{name}/search?q=&category=&limit=
  GET  /api/galleries/{name}/records/{id}
  POST /api/unlock
  GET|PUT|DELETE /api/prefs/{key}

Examples:
  # Serve on the default address
  showcase serve

  # Serve on all interfaces and reload on file changes
  showcase serve --addr :8080 --watch`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "",
		fmt.Sprintf("Listen address (default %s, or server.addr from the config file)", config.DefaultAddr))
	cmd.Flags().BoolP("watch", "w", false,
		"Reload galleries when their local source files change")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of galleries loaded concurrently")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for fetching one gallery source")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if cfg.Watch, err = cmd.Flags().GetBool("watch"); err != nil {
		return err
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateGalleries(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", db.Path())

	g, err := newGate(cfg, db)
	if err != nil {
		return err
	}
	if n, err := db.PurgeExpired(ctx); err != nil {
		logger.Warn("failed to purge expired preferences", "error", err)
	} else if n > 0 {
		logger.Debug("expired preferences purged", "count", n)
	}

	srv := server.New(
		server.WithLogger(logger),
		server.WithGate(g),
		server.WithPreferences(db),
		server.WithRequestTimeout(cfg.Galleries.Server.RequestTimeout),
	)
	defer srv.Close()

	sl := &servedLoader{cfg: cfg, db: db, gate: g, srv: srv, logger: logger}
	if err := sl.load(ctx); err != nil {
		return err
	}

	if cfg.Watch {
		w, err := sl.watcher()
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("file watcher stopped", "error", err)
			}
		}()
	}

	logger.Info("serving galleries", "addr", cfg.Addr, "galleries", srv.Names())
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %d galleries on http://%s\n", len(srv.Names()), cfg.Addr)
	return srv.Run(ctx, cfg.Addr)
}

// servedLoader loads galleries into a running server.
type servedLoader struct {
	cfg    *config.Config
	db     *database.PrefDB
	gate   *gate.Gate
	srv    *server.Server
	logger *slog.Logger
}

// load loads the named galleries (all when names is empty), stores their
// load reports and hands them to the server.
func (sl *servedLoader) load(ctx context.Context, names ...string) error {
	reports, err := loadReports(ctx, sl.cfg, sl.logger, names...)
	if err != nil {
		return err
	}
	saveReports(ctx, sl.db, reports, sl.logger)

	galleries := make([]*gallery.Gallery, 0, len(reports))
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		g, err := newGallery(sl.cfg, rep, sl.gate)
		if err != nil {
			return err
		}
		galleries = append(galleries, g)
		sl.logLoad(rep)
	}
	sl.srv.Update(galleries...)
	return nil
}

func (sl *servedLoader) logLoad(rep *model.LoadReport) {
	if rep.Failed() {
		sl.logger.Warn("gallery failed to load", "gallery", rep.Gallery, "source", rep.Source, "error", rep.Error)
		return
	}
	sl.logger.Info("gallery loaded",
		"gallery", rep.Gallery,
		"records", rep.RecordCount,
		"categories", len(rep.CategoryCounts),
		"warnings", len(rep.Warnings),
		"duration", rep.Duration(),
	)
}

// watcher returns a file watcher over every local source and body file
// directory. Remote sources are not watched.
func (sl *servedLoader) watcher() (*watch.Watcher, error) {
	w, err := watch.New(func(ctx context.Context, names []string) {
		if err := sl.load(ctx, names...); err != nil {
			sl.logger.Error("reload failed", "galleries", names, "error", err)
		}
	}, watch.WithLogger(sl.logger))
	if err != nil {
		return nil, err
	}

	for _, name := range sl.cfg.Galleries.Names() {
		def, _ := sl.cfg.Galleries.GetGallery(name)
		if config.IsRemote(def.Source) {
			sl.logger.Debug("remote source is not watched", "gallery", name, "source", def.Source)
			continue
		}
		paths := []string{def.Source}
		if def.FilesDir != "" {
			paths = append(paths, def.FilesDir)
		}
		for _, p := range paths {
			if err := w.Add(name, p); err != nil {
				sl.logger.Warn("cannot watch path", "gallery", name, "path", p, "error", err)
			}
		}
	}
	return w, nil
}
