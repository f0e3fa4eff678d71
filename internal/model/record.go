package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// CategoryAll is the synthetic category that matches every record.
	CategoryAll = "all"

	// CategoryUncategorized is assigned to records without a category.
	CategoryUncategorized = "uncategorized"
)

// Record is one canonical content item.
//
// Every source shape (prompt lists, grouped stories, link directories, blog
// post indexes) is normalized into this form by the loader.
type Record struct {
	// ID identifies the record within its collection. It is assigned at load
	// time from the record's position after ordering, starting at 1, and
	// does not change until the next load.
	ID int `json:"id"`

	// Title is the display name. Empty when the source has none.
	Title string `json:"title"`

	// Category is the record's single category label.
	Category string `json:"category"`

	// Description is a short excerpt shown on cards.
	Description string `json:"description,omitempty"`

	// Body is the full content, markdown or plain text.
	Body string `json:"body,omitempty"`

	// Tags holds parameters or tags in source order. Never nil after load.
	Tags []string `json:"tags"`

	// Date is an optional YYYY-MM-DD date.
	Date string `json:"date,omitempty"`

	// URL is an optional link target, used by link directories.
	URL string `json:"url,omitempty"`
}

// NormalizeCategory returns the category label used for a raw value.
// Blank values map to CategoryUncategorized.
func NormalizeCategory(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return CategoryUncategorized
	}
	return c
}

// Fingerprint returns a hex sha3-256 digest of the record's title and body.
// It identifies the same content across loads even when IDs shift.
func (r Record) Fingerprint() string {
	h := sha3.New256()
	h.Write([]byte(r.Title))
	h.Write([]byte{0})
	h.Write([]byte(r.Body))
	return hex.EncodeToString(h.Sum(nil))
}

// HasTag reports whether the record carries tag.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
