package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/loader"
	"github.com/nao1215/showcase/internal/model"
)

// Step names. They appear as the Stage of a LoadError.
const (
	StepFetch     = "fetch"
	StepDecode    = "decode"
	StepNormalize = "normalize"
	StepBodyFiles = "body_files"
	StepOrder     = "order"
	StepIndex     = "index"
)

// FetchStep reads the source document into report.Raw.
type FetchStep struct {
	fetcher *loader.Fetcher
}

// NewFetchStep creates a fetch step.
func NewFetchStep(fetcher *loader.Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return StepFetch }

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, report *model.LoadReport) error {
	raw, err := s.fetcher.Fetch(ctx, report.Source)
	if err != nil {
		return err
	}
	report.Raw = raw
	return nil
}

// DecodeStep parses report.Raw into report.Document, keeping object key
// order.
type DecodeStep struct{}

// NewDecodeStep creates a decode step.
func NewDecodeStep() *DecodeStep { return &DecodeStep{} }

// Name returns the step name.
func (s *DecodeStep) Name() string { return StepDecode }

// Do executes the decode step.
func (s *DecodeStep) Do(_ context.Context, report *model.LoadReport) error {
	doc, err := loader.Decode(report.Raw)
	if err != nil {
		return err
	}
	report.Document = doc
	report.Raw = nil
	return nil
}

// NormalizeStep maps the decoded document onto canonical records.
type NormalizeStep struct {
	normalizer *loader.Normalizer
}

// NewNormalizeStep creates a normalize step for a merged gallery definition.
func NewNormalizeStep(def config.Gallery) *NormalizeStep {
	return &NormalizeStep{normalizer: loader.NewNormalizer(def)}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string { return StepNormalize }

// Do executes the normalize step.
func (s *NormalizeStep) Do(_ context.Context, report *model.LoadReport) error {
	entries, warnings, err := s.normalizer.Normalize(report.Document)
	if err != nil {
		return err
	}
	report.Document = nil
	report.Records = make([]model.Record, len(entries))
	report.BodyFiles = make([]string, len(entries))
	for i, e := range entries {
		report.Records[i] = e.Record
		report.BodyFiles[i] = e.BodyFile
	}
	for _, w := range warnings {
		report.AddWarning(w)
	}
	return nil
}

// BodyFilesStep reads bodies kept in separate files. Unreadable files leave
// the body empty and add a warning.
type BodyFilesStep struct {
	fetcher     *loader.Fetcher
	dir         string
	concurrency int
	excerpt     bool
	logger      *slog.Logger
}

// BodyFilesStepOption configures a BodyFilesStep.
type BodyFilesStepOption func(*BodyFilesStep)

// WithBodyConcurrency sets how many body files are read at once.
func WithBodyConcurrency(n int) BodyFilesStepOption {
	return func(s *BodyFilesStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBodyLogger sets a custom logger for the body files step.
func WithBodyLogger(logger *slog.Logger) BodyFilesStepOption {
	return func(s *BodyFilesStep) {
		s.logger = logger
	}
}

// NewBodyFilesStep creates a body files step. Files are read from
// def.FilesDir, or from the directory of the source when it is empty.
func NewBodyFilesStep(fetcher *loader.Fetcher, def config.Gallery, opts ...BodyFilesStepOption) *BodyFilesStep {
	s := &BodyFilesStep{
		fetcher:     fetcher,
		dir:         def.FilesDir,
		concurrency: config.DefaultLinkCheckConcurrency,
		excerpt:     def.DeriveExcerpt,
		logger:      slog.Default(),
	}
	if s.dir == "" {
		s.dir = sourceDir(def.Source)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *BodyFilesStep) Name() string { return StepBodyFiles }

// Do executes the body files step.
func (s *BodyFilesStep) Do(ctx context.Context, report *model.LoadReport) error {
	wanted := 0
	for _, name := range report.BodyFiles {
		if strings.TrimSpace(name) != "" {
			wanted++
		}
	}
	if wanted == 0 {
		return nil
	}

	bodies, warnings := s.fetcher.FetchBodies(ctx, s.dir, report.BodyFiles, s.concurrency)
	for i, body := range bodies {
		if body == "" {
			continue
		}
		rec := &report.Records[i]
		rec.Body = body
		if rec.Description == "" && s.excerpt {
			rec.Description = loader.Excerpt(body, model.DefaultExcerptLength)
		}
	}
	for _, w := range warnings {
		report.AddWarning(w)
	}

	s.logger.Debug("body files read",
		"gallery", report.Gallery,
		"files", wanted,
		"failed", len(warnings),
	)
	return ctx.Err()
}

// sourceDir returns the directory or base URL of source.
func sourceDir(source string) string {
	if config.IsRemote(source) {
		if i := strings.LastIndex(source, "/"); i > len("https://") {
			return source[:i]
		}
		return source
	}
	return filepath.Dir(source)
}

// OrderStep applies the gallery's record order.
type OrderStep struct {
	order string
}

// NewOrderStep creates an order step.
func NewOrderStep(order string) *OrderStep { return &OrderStep{order: order} }

// Name returns the step name.
func (s *OrderStep) Name() string { return StepOrder }

// Do executes the order step.
func (s *OrderStep) Do(_ context.Context, report *model.LoadReport) error {
	switch s.order {
	case "", config.OrderSource:
	case config.OrderDateDesc:
		loader.SortByDateDesc(report.Records)
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownOrder, s.order)
	}
	return nil
}

// IndexStep assigns record identities and builds the collection.
type IndexStep struct {
	now func() time.Time
}

// NewIndexStep creates an index step.
func NewIndexStep() *IndexStep { return &IndexStep{now: time.Now} }

// Name returns the step name.
func (s *IndexStep) Name() string { return StepIndex }

// Do executes the index step.
func (s *IndexStep) Do(_ context.Context, report *model.LoadReport) error {
	report.Collection = model.NewCollection(report.Gallery, report.Records, s.now())
	report.Records = nil
	report.BodyFiles = nil
	return nil
}

// GalleryPipeline creates the pipeline that loads one gallery:
// fetch, decode, normalize, body files, order and index.
func GalleryPipeline(def config.Gallery, fetcher *loader.Fetcher, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewFetchStep(fetcher),
		NewDecodeStep(),
		NewNormalizeStep(def),
		NewBodyFilesStep(fetcher, def, WithBodyLogger(p.logger)),
		NewOrderStep(def.Order),
		NewIndexStep(),
	)
	return p
}

// LoadGallery loads a single gallery. The report is always returned; err is
// a *model.LoadError when the load failed.
func LoadGallery(ctx context.Context, name string, def config.Gallery, fetcher *loader.Fetcher, opts ...Option) (*model.LoadReport, error) {
	report := model.NewLoadReport(name, def.Source)
	err := GalleryPipeline(def, fetcher, opts...).Execute(ctx, report)
	return report, err
}
