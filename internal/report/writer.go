package report

import (
	"io"

	"github.com/nao1215/showcase/internal/model"
)

// Writer defines the interface for report output.
// Implementations write the same data in different formats.
type Writer interface {
	// WriteListing outputs one page of a gallery listing.
	WriteListing(listing model.Listing) (int, error)

	// WriteLoads outputs a summary of gallery loads.
	WriteLoads(reports []*model.LoadReport) (int, error)

	// WriteFindings outputs validation findings.
	WriteFindings(findings []model.Finding) (int, error)

	// WriteComparison outputs the difference between two loads.
	WriteComparison(cmp *Comparison) (int, error)
}

// MultiWriter writes to multiple Writers in turn, stopping at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteListing outputs the listing to all Writers.
func (m *MultiWriter) WriteListing(listing model.Listing) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteListing(listing) })
}

// WriteLoads outputs the load summary to all Writers.
func (m *MultiWriter) WriteLoads(reports []*model.LoadReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteLoads(reports) })
}

// WriteFindings outputs the findings to all Writers.
func (m *MultiWriter) WriteFindings(findings []model.Finding) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteFindings(findings) })
}

// WriteComparison outputs the comparison to all Writers.
func (m *MultiWriter) WriteComparison(cmp *Comparison) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteComparison(cmp) })
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes a load outcome.
func statusText(r *model.LoadReport) string {
	if r.Failed() {
		return "ERROR - " + r.Error
	}
	return "OK"
}

// stateText describes a listing state for humans.
func stateText(l model.Listing) string {
	switch l.State {
	case model.ListingLoadError:
		return "load error: " + l.Error
	case model.ListingEmpty:
		return "no matching records"
	default:
		return "ok"
	}
}

// filterText renders a filter state as "category / keyword".
func filterText(f model.FilterState) string {
	if f.Keyword == "" {
		return f.Category
	}
	return f.Category + " / \"" + f.Keyword + "\""
}
