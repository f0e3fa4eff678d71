// Package gallery holds the view state of one gallery.
//
// A Gallery owns its collection, the current filter, a pager and the detail
// modal, so several galleries can live side by side without sharing state.
// Filter changes go through a sequencer: a search that finishes after a
// newer one was issued is dropped instead of overwriting the newer result.
//
// Query builds a listing without touching the view state and is what the
// HTTP server uses for independent requests.
package gallery
