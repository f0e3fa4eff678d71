package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/model"
)

// Job names a gallery to load.
type Job struct {
	Name       string
	Definition config.Gallery
}

// JobsFromFile returns jobs for names, or for every configured gallery when
// names is empty.
func JobsFromFile(file *config.File, names ...string) ([]Job, error) {
	if file == nil || len(file.Galleries) == 0 {
		return nil, config.ErrNoGalleries
	}
	if len(names) == 0 {
		names = file.Names()
	}
	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		def, ok := file.GetGallery(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownGallery, name)
		}
		jobs = append(jobs, Job{Name: name, Definition: def})
	}
	return jobs, nil
}

// BatchProcessor loads several galleries concurrently. A failed gallery
// does not stop the others; its error is kept in its report.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each gallery.
	pipelineFactory func(def config.Gallery) *Pipeline

	concurrency int
	logger      *slog.Logger

	results []*model.LoadReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent loads.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(def config.Gallery) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch loads every job and returns the reports in job order.
// The error is only non-nil when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []Job) ([]*model.LoadReport, error) {
	bp.logger.Info("loading galleries",
		"total", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*model.LoadReport, len(jobs))

	err := bp.ProcessBatchWithCallback(ctx, jobs, func(report *model.LoadReport, index int) {
		bp.mu.Lock()
		bp.results[index] = report
		bp.mu.Unlock()
	})

	bp.logger.Info("galleries loaded",
		"total", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback loads every job and calls callback with each
// report as soon as it is done. The callback runs on the loading goroutine.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []Job,
	callback func(report *model.LoadReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewLoadReport(job.Name, job.Definition.Source)
			if err := bp.pipelineFactory(job.Definition).Execute(ctx, report); err != nil {
				bp.logger.Warn("gallery load failed",
					"gallery", job.Name,
					"error", err,
				)
			} else {
				bp.logger.Debug("gallery loaded",
					"gallery", job.Name,
					"records", report.RecordCount,
				)
			}

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
