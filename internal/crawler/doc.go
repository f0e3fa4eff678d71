// Package crawler reads HTML found in gallery records and checks the links
// they point at.
//
// # Components
//
//   - Parser: extracts plain text, links and images from HTML bodies. The
//     loader uses it to derive card excerpts from HTML content.
//   - LinkChecker: requests record URLs and body links (HEAD, then GET when
//     HEAD is refused) and reports the ones that do not answer with 2xx/3xx.
//     `showcase validate --check-links` drives it.
//
// # Politeness
//
// LinkChecker deduplicates URLs, waits a configurable delay before each
// request, bounds the number of parallel requests and never reads more than
// maxBodySize bytes of a response.
//
// # Usage
//
//	checker := crawler.NewLinkChecker(http.DefaultClient, crawler.WithConcurrency(4))
//	results, err := checker.CheckAll(ctx, crawler.TargetsFromRecords(records))
package crawler
