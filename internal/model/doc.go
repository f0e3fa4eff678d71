// Package model defines the data shared by every showcase package.
//
// The main types are:
//   - Record: one canonical content item (prompt, post, story, link)
//   - Collection: the immutable record set produced by one load
//   - CategoryIndex: the ordered category labels, "all" first
//   - FilterState: the current category and keyword of a gallery view
//   - Listing: what a gallery view shows for one filter and page state
//   - LoadReport: diagnostics for one load, stored for history comparison
//
// Records are never modified after a load. Filtering, paging and rendering all
// produce new values that point back at records through their ID.
package model
