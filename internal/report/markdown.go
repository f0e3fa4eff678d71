package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/showcase/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Category and severity distributions are drawn as mermaid pie
// charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// cell escapes table cell content.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// WriteListing outputs the listing as a card table.
func (w *MarkdownWriter) WriteListing(l model.Listing) (int, error) {
	md := markdown.NewMarkdown(w.output)

	title := l.Title
	if title == "" {
		title = l.Gallery
	}
	md.H1(title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Gallery", "`" + l.Gallery + "`"},
			{"Filter", cell(filterText(l.Filter))},
			{"Matched", strconv.Itoa(l.Matched) + " of " + strconv.Itoa(l.Total)},
			{"Page", strconv.Itoa(l.Page)},
			{"State", cell(stateText(l))},
		},
	})
	md.PlainText("")

	switch l.State {
	case model.ListingLoadError:
		md.Cautionf("This gallery could not be loaded: %s", l.Error)
		return len(md.String()), md.Build()
	case model.ListingEmpty:
		md.Note("No records match the current filter.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(l.Cards))
	for i, c := range l.Cards {
		rows[i] = []string{
			strconv.Itoa(c.ID),
			cell(dash(c.Title)),
			cell(c.Category),
			cell(dash(c.Excerpt)),
			cell(dash(strings.Join(c.Tags, ", "))),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Title", "Category", "Excerpt", "Tags"},
		Rows:   rows,
	})
	md.PlainText("")
	if l.HasMore {
		md.Tip("More records are available. Load more to see them.")
	}

	return len(md.String()), md.Build()
}

// WriteLoads outputs a gallery table and a category chart per gallery.
func (w *MarkdownWriter) WriteLoads(reports []*model.LoadReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Showcase Galleries")
	md.PlainText("")

	rows := make([][]string, 0, len(reports))
	failed := 0
	for _, r := range reports {
		if r == nil {
			continue
		}
		status := "✅ OK"
		if r.Failed() {
			status = "❌ Error"
			failed++
		}
		rows = append(rows, []string{
			"`" + r.Gallery + "`",
			strconv.Itoa(r.RecordCount),
			strconv.Itoa(len(r.CategoryCounts)),
			strconv.Itoa(len(r.Warnings)),
			status,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Gallery", "Records", "Categories", "Warnings", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if failed > 0 {
		md.Warningf("%d gallery load(s) failed and will show the error view.", failed)
		md.PlainText("")
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		md.H2(r.Gallery)
		md.PlainText("")
		if r.Failed() {
			md.Caution(r.Error)
			md.PlainText("")
			continue
		}
		if len(r.CategoryCounts) > 0 {
			chart := piechart.NewPieChart(
				io.Discard,
				piechart.WithTitle("Records per category"),
				piechart.WithShowData(true),
			)
			for _, label := range r.SortedCategories() {
				chart.LabelAndIntValue(label, uint64(r.CategoryCounts[label])) //nolint:gosec // counts are non-negative
			}
			md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
			md.PlainText("")
		}
		for _, warn := range r.Warnings {
			md.Details("Warning", warn)
		}
	}

	return len(md.String()), md.Build()
}

// WriteFindings outputs a severity summary, chart and findings table.
func (w *MarkdownWriter) WriteFindings(findings []model.Finding) (int, error) {
	md := markdown.NewMarkdown(w.output)
	counts := model.CountBySeverity(findings)

	md.H1("Showcase Validation")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Error", strconv.Itoa(counts[model.SeverityError])},
			{"🟡 Warning", strconv.Itoa(counts[model.SeverityWarning])},
			{"⚪ Info", strconv.Itoa(counts[model.SeverityInfo])},
			{"**Total**", "**" + strconv.Itoa(len(findings)) + "**"},
		},
	})
	md.PlainText("")

	if len(findings) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Finding Severity Distribution"),
			piechart.WithShowData(true),
		)
		for _, sev := range []model.Severity{model.SeverityError, model.SeverityWarning, model.SeverityInfo} {
			if counts[sev] > 0 {
				chart.LabelAndIntValue(sev.String(), uint64(counts[sev])) //nolint:gosec // counts are non-negative
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case counts[model.SeverityError] > 0:
		md.Cautionf("%d error(s): some galleries or records cannot be shown.", counts[model.SeverityError])
	case counts[model.SeverityWarning] > 0:
		md.Warningf("%d warning(s): some records will render poorly.", counts[model.SeverityWarning])
	case len(findings) > 0:
		md.Note("Only informational findings.")
	default:
		md.Tip("No problems found.")
	}
	md.PlainText("")

	if len(findings) > 0 {
		rows := make([][]string, len(findings))
		for i, f := range findings {
			id := "-"
			if f.RecordID > 0 {
				id = strconv.Itoa(f.RecordID)
			}
			rows[i] = []string{f.SeverityText, "`" + f.Gallery + "`", id, f.Type, cell(f.Message)}
		}
		md.H2("Findings")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Severity", "Gallery", "Record", "Type", "Message"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// WriteComparison outputs added and removed records and category changes.
func (w *MarkdownWriter) WriteComparison(c *Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Load Comparison: " + c.Gallery)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Load", "Records"},
		Rows: [][]string{
			{"Previous", "`" + c.OldID + "`", strconv.Itoa(c.OldCount)},
			{"Current", "`" + c.NewID + "`", strconv.Itoa(c.NewCount)},
		},
	})
	md.PlainText("")

	if c.Direction == DirectionUnchanged {
		md.Note("No records were added or removed.")
		md.PlainText("")
	}
	if len(c.Added) > 0 {
		md.H2("Added")
		md.PlainText("")
		md.BulletList(c.Added...)
		md.PlainText("")
	}
	if len(c.Removed) > 0 {
		md.H2("Removed")
		md.PlainText("")
		md.BulletList(c.Removed...)
		md.PlainText("")
	}
	if labels := c.Categories(); len(labels) > 0 {
		rows := make([][]string, len(labels))
		for i, label := range labels {
			d := c.CategoryDelta[label]
			sign := ""
			if d > 0 {
				sign = "+"
			}
			rows[i] = []string{cell(label), sign + strconv.Itoa(d)}
		}
		md.H2("Categories")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Category", "Change"}, Rows: rows})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}
