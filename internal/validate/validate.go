// Package validate checks loaded galleries for data that will not display
// well: failed loads, records without titles or content, duplicates and,
// optionally, broken links.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/showcase/internal/crawler"
	"github.com/nao1215/showcase/internal/model"
)

// Validator turns load reports into findings.
type Validator struct {
	checker *crawler.LinkChecker
	logger  *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLinkChecker enables link checking with c.
func WithLinkChecker(c *crawler.LinkChecker) Option {
	return func(v *Validator) { v.checker = c }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// New returns a Validator. Links are only checked when a LinkChecker is
// given.
func New(opts ...Option) *Validator {
	v := &Validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateAll validates each report in turn and returns all findings in
// report order.
func (v *Validator) ValidateAll(ctx context.Context, reports []*model.LoadReport) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	for _, r := range reports {
		if r == nil {
			continue
		}
		fs, err := v.Validate(ctx, r)
		findings = append(findings, fs...)
		if err != nil {
			return findings, err
		}
	}
	return findings, nil
}

// Validate checks one load. The error is non-nil only when ctx ends during
// link checking.
func (v *Validator) Validate(ctx context.Context, report *model.LoadReport) ([]model.Finding, error) {
	gallery := report.Gallery
	findings := make([]model.Finding, 0)

	if report.Failed() {
		return append(findings, model.NewFinding(model.FindingLoadFailed, gallery, 0, report.Error)), nil
	}
	for _, w := range report.Warnings {
		findings = append(findings, model.NewFinding(model.FindingLoadWarning, gallery, 0, w))
	}

	c := report.Collection
	if c == nil || c.Len() == 0 {
		return append(findings, model.NewFinding(model.FindingNoRecords, gallery, 0, "gallery has no records")), nil
	}

	fold := cases.Fold()
	firstByTitle := make(map[string]int, c.Len())
	for _, r := range c.Records() {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			findings = append(findings, model.NewFinding(model.FindingEmptyTitle, gallery, r.ID, "record has no title"))
		} else {
			key := fold.String(title)
			if first, ok := firstByTitle[key]; ok {
				findings = append(findings, model.NewFinding(model.FindingDuplicateTitle, gallery, r.ID,
					fmt.Sprintf("title %q repeats record %d", title, first)))
			} else {
				firstByTitle[key] = r.ID
			}
		}
		if strings.TrimSpace(r.Body) == "" && strings.TrimSpace(r.Description) == "" && r.URL == "" {
			findings = append(findings, model.NewFinding(model.FindingEmptyBody, gallery, r.ID, "record has no body, description or link"))
		}
		if r.Category == model.CategoryUncategorized {
			findings = append(findings, model.NewFinding(model.FindingUncategorized, gallery, r.ID, "record has no category"))
		}
	}

	if v.checker == nil {
		return findings, nil
	}

	targets := crawler.TargetsFromRecords(c.Records())
	v.logger.Debug("checking links", "gallery", gallery, "targets", len(targets))
	results, err := v.checker.CheckAll(ctx, targets)
	if err != nil {
		return findings, err
	}
	for _, res := range results {
		if res.OK {
			continue
		}
		msg := res.URL
		switch {
		case res.Err != "":
			msg += ": " + res.Err
		case res.StatusCode != 0:
			msg += fmt.Sprintf(": HTTP %d", res.StatusCode)
		}
		findings = append(findings, model.NewFinding(model.FindingBrokenLink, gallery, res.RecordID, msg))
	}
	return findings, nil
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []model.Finding) bool {
	for _, f := range findings {
		if f.Severity >= model.SeverityError {
			return true
		}
	}
	return false
}
