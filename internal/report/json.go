package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/showcase/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadsReport is the JSON shape of a load summary.
type LoadsReport struct {
	Galleries []*model.LoadReport `json:"galleries"`
	Failed    int                 `json:"failed"`
}

// FindingsReport is the JSON shape of a validation run.
type FindingsReport struct {
	Findings []model.Finding `json:"findings"`
	Errors   int             `json:"errors"`
	Warnings int             `json:"warnings"`
	Infos    int             `json:"infos"`
}

// NewFindingsReport counts findings by severity.
func NewFindingsReport(findings []model.Finding) FindingsReport {
	if findings == nil {
		findings = []model.Finding{}
	}
	counts := model.CountBySeverity(findings)
	return FindingsReport{
		Findings: findings,
		Errors:   counts[model.SeverityError],
		Warnings: counts[model.SeverityWarning],
		Infos:    counts[model.SeverityInfo],
	}
}

// WriteListing outputs the listing as JSON.
func (w *JSONWriter) WriteListing(l model.Listing) (int, error) {
	return w.writeJSON(l)
}

// WriteLoads outputs the load reports as JSON.
func (w *JSONWriter) WriteLoads(reports []*model.LoadReport) (int, error) {
	out := LoadsReport{Galleries: make([]*model.LoadReport, 0, len(reports))}
	for _, r := range reports {
		if r == nil {
			continue
		}
		out.Galleries = append(out.Galleries, r)
		if r.Failed() {
			out.Failed++
		}
	}
	return w.writeJSON(out)
}

// WriteFindings outputs the findings and their counts as JSON.
func (w *JSONWriter) WriteFindings(findings []model.Finding) (int, error) {
	return w.writeJSON(NewFindingsReport(findings))
}

// WriteComparison outputs the comparison as JSON.
func (w *JSONWriter) WriteComparison(c *Comparison) (int, error) {
	return w.writeJSON(c)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
