package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// LoadReport records what happened during one load of a gallery.
// It travels through the loader pipeline, is stored in the preference
// database, and feeds the history comparison.
type LoadReport struct {
	// ID uniquely identifies the load.
	ID string `json:"id"`

	// Gallery is the gallery name.
	Gallery string `json:"gallery"`

	// Source is the resolved file path or URL.
	Source string `json:"source"`

	// StartedAt and FinishedAt bracket the load.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// === Pipeline state ===
	// These fields are filled in by the pipeline steps and are not stored.

	// Raw is the fetched document.
	Raw []byte `json:"-"`

	// Document is the decoded JSON document.
	Document any `json:"-"`

	// Records are the normalized records before identity assignment.
	Records []Record `json:"-"`

	// BodyFiles holds the body file name of each entry of Records, or ""
	// when the record carries its body inline.
	BodyFiles []string `json:"-"`

	// Collection is the final record set.
	Collection *Collection `json:"-"`

	// === Results ===

	// RecordCount is the number of records loaded.
	RecordCount int `json:"record_count"`

	// CategoryCounts maps category labels to record counts.
	CategoryCounts map[string]int `json:"category_counts,omitempty"`

	// Fingerprints holds Record.Fingerprint values in canonical order.
	Fingerprints []string `json:"fingerprints,omitempty"`

	// Titles holds the titles matching Fingerprints, for history output.
	Titles []string `json:"titles,omitempty"`

	// Warnings lists non-fatal problems such as unreadable body files.
	Warnings []string `json:"warnings,omitempty"`

	// Steps lists the pipeline steps that ran to completion.
	Steps []string `json:"steps,omitempty"`

	// Error is the load error message, empty on success.
	Error string `json:"error,omitempty"`
}

// NewLoadReport starts a report for gallery and source.
func NewLoadReport(gallery, source string) *LoadReport {
	return &LoadReport{
		ID:             uuid.NewString(),
		Gallery:        gallery,
		Source:         source,
		StartedAt:      time.Now(),
		CategoryCounts: make(map[string]int),
	}
}

// AddWarning appends a non-fatal problem.
func (r *LoadReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Failed reports whether the load ended with an error.
func (r *LoadReport) Failed() bool {
	return r.Error != ""
}

// Finish fills the result fields from the collection and stamps FinishedAt.
func (r *LoadReport) Finish(c *Collection) {
	r.FinishedAt = time.Now()
	if c == nil {
		return
	}
	r.Collection = c
	r.RecordCount = c.Len()
	r.CategoryCounts = c.CategoryCounts()
	r.Fingerprints = make([]string, 0, c.Len())
	r.Titles = make([]string, 0, c.Len())
	for _, rec := range c.records {
		r.Fingerprints = append(r.Fingerprints, rec.Fingerprint())
		r.Titles = append(r.Titles, rec.Title)
	}
}

// Duration returns how long the load took.
func (r *LoadReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SortedCategories returns the category labels of CategoryCounts sorted by
// descending count, then by label.
func (r *LoadReport) SortedCategories() []string {
	labels := make([]string, 0, len(r.CategoryCounts))
	for label := range r.CategoryCounts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := r.CategoryCounts[labels[i]], r.CategoryCounts[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})
	return labels
}
