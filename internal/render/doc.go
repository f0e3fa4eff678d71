// Package render decides which filtered records a list shows.
//
// Three strategies cover every gallery:
//   - full replace: a filter change resets the Pager to page 1 and the
//     visible set is recomputed from the new result
//   - incremental append: Pager.LoadMore grows the visible prefix by one page
//     and keeps everything shown before
//   - windowed: above a size threshold, Window computes the slice of items
//     that intersect the viewport plus a buffer on both sides, and the height
//     of the spacer that stands in for the rest
//
// Cards carry the record ID, so activating a card resolves through the
// collection and never through the card's position.
package render
