package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/showcase/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing in them are shown.
	showEmpty bool

	// verbose adds excerpts and tags to listings and warnings to loads.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func banner(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := max((ruleWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

// WriteListing outputs the listing as a numbered card list.
func (w *SimpleWriter) WriteListing(l model.Listing) (int, error) {
	var sb strings.Builder

	title := l.Title
	if title == "" {
		title = l.Gallery
	}
	fmt.Fprintf(&sb, "%s [%s]\n", title, filterText(l.Filter))
	fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(l.Categories, ", "))

	switch l.State {
	case model.ListingLoadError:
		fmt.Fprintf(&sb, "\n  Could not load this gallery: %s\n", l.Error)
		return w.output.Write([]byte(sb.String()))
	case model.ListingEmpty:
		sb.WriteString("\n  No records match.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "Showing %d of %d matching (%d total)\n\n", len(l.Cards), l.Matched, l.Total)
	for _, c := range l.Cards {
		fmt.Fprintf(&sb, "  [%d] %s  (%s)", c.ID, c.Title, c.Category)
		if c.Date != "" {
			fmt.Fprintf(&sb, "  %s", c.Date)
		}
		sb.WriteString("\n")
		if w.verbose {
			if c.Excerpt != "" {
				fmt.Fprintf(&sb, "      %s\n", c.Excerpt)
			}
			if len(c.Tags) > 0 {
				fmt.Fprintf(&sb, "      tags: %s\n", strings.Join(c.Tags, ", "))
			}
		}
	}
	if l.HasMore {
		fmt.Fprintf(&sb, "\n  ... more available (page %d, use --more)\n", l.Page)
	}
	return w.output.Write([]byte(sb.String()))
}

// WriteLoads outputs one block per gallery load.
func (w *SimpleWriter) WriteLoads(reports []*model.LoadReport) (int, error) {
	var sb strings.Builder
	banner(&sb, "SHOWCASE GALLERIES")

	for _, r := range reports {
		if r == nil {
			continue
		}
		fmt.Fprintf(&sb, "Gallery:    %s\n", r.Gallery)
		fmt.Fprintf(&sb, "Source:     %s\n", r.Source)
		fmt.Fprintf(&sb, "Status:     %s\n", statusText(r))
		fmt.Fprintf(&sb, "Records:    %d\n", r.RecordCount)
		for _, label := range r.SortedCategories() {
			fmt.Fprintf(&sb, "  %-24s %d\n", label, r.CategoryCounts[label])
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(&sb, "Warnings:   %d\n", len(r.Warnings))
			if w.verbose {
				for _, warn := range r.Warnings {
					fmt.Fprintf(&sb, "  [!] %s\n", warn)
				}
			}
		}
		if w.verbose {
			fmt.Fprintf(&sb, "Duration:   %s\n", r.Duration())
		}
		sb.WriteString("\n")
	}
	return w.output.Write([]byte(sb.String()))
}

// WriteFindings outputs findings grouped by severity, most severe first.
func (w *SimpleWriter) WriteFindings(findings []model.Finding) (int, error) {
	var sb strings.Builder
	banner(&sb, "SHOWCASE VALIDATION")

	counts := model.CountBySeverity(findings)
	section(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "  ERROR:   %d\n", counts[model.SeverityError])
	fmt.Fprintf(&sb, "  WARNING: %d\n", counts[model.SeverityWarning])
	fmt.Fprintf(&sb, "  INFO:    %d\n\n", counts[model.SeverityInfo])

	if len(findings) == 0 && !w.showEmpty {
		sb.WriteString("  No problems found\n")
		return w.output.Write([]byte(sb.String()))
	}

	section(&sb, "FINDINGS")
	if len(findings) == 0 {
		sb.WriteString("  No problems found\n")
	}
	for _, sev := range []model.Severity{model.SeverityError, model.SeverityWarning, model.SeverityInfo} {
		for _, f := range findings {
			if f.Severity != sev {
				continue
			}
			fmt.Fprintf(&sb, "  [%s] %s", f.SeverityText, f.Gallery)
			if f.RecordID > 0 {
				fmt.Fprintf(&sb, " #%d", f.RecordID)
			}
			fmt.Fprintf(&sb, ": %s\n", f.Message)
		}
	}
	return w.output.Write([]byte(sb.String()))
}

// WriteComparison outputs added and removed records and category changes.
func (w *SimpleWriter) WriteComparison(c *Comparison) (int, error) {
	var sb strings.Builder
	banner(&sb, "SHOWCASE LOAD COMPARISON")

	fmt.Fprintf(&sb, "Gallery:   %s\n", c.Gallery)
	fmt.Fprintf(&sb, "Records:   %d -> %d (%s)\n\n", c.OldCount, c.NewCount, c.Direction)

	list := func(title, mark string, items []string) {
		if len(items) == 0 && !w.showEmpty {
			return
		}
		section(&sb, title)
		if len(items) == 0 {
			sb.WriteString("  None\n")
		}
		for _, item := range items {
			fmt.Fprintf(&sb, "  [%s] %s\n", mark, item)
		}
		sb.WriteString("\n")
	}
	list("ADDED", "+", c.Added)
	list("REMOVED", "-", c.Removed)

	if labels := c.Categories(); len(labels) > 0 {
		section(&sb, "CATEGORIES")
		for _, label := range labels {
			fmt.Fprintf(&sb, "  %-24s %+d\n", label, c.CategoryDelta[label])
		}
	}
	return w.output.Write([]byte(sb.String()))
}
