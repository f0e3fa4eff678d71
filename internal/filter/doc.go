// Package filter selects records by category and keyword.
//
// Apply is a pure function: it never modifies its input, keeps the input
// order, and returning to the same category and keyword always yields the
// same result. The category "all" matches every record. The keyword is
// trimmed; a blank keyword matches every record; otherwise a record matches
// when its title, description or body contains the keyword.
//
// Keyword matching ignores case. Both sides are compared after Unicode
// case folding (golang.org/x/text/cases), so "FOX", "fox" and "Fox" match
// alike, and so do non-ASCII pairs such as "ÉCOLE" and "école". Full-width
// and half-width forms are not unified.
//
// Matcher caches folded fields for repeated searches over one collection.
// Sequencer tags searches with generations so that a slow result for an
// old keystroke never replaces the result of a newer one.
package filter
