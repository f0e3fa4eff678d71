// Package loader turns a gallery's source document into canonical records.
//
// A load is a single attempt: Fetcher reads the source (a local file or an
// http(s) URL), Decode parses it while keeping object key order, and
// Normalizer maps the gallery-specific shape onto model.Record using the
// gallery's field mapping. Failures are reported as errors that the pipeline
// wraps into model.LoadError; nothing is retried.
//
// Supported shapes:
//
//	list     [ {...}, {...} ]                    or {"prompt_templates": [...]}
//	grouped  {"prompts_by_category": {"Writing": [...], "Coding": [...]}}
//	groups   [ {"name": "Video", "items": [...]} ] or {"categories": {"Bedtime": {"stories": [...]}}}
//
// Key order matters: categories are offered in the order they first appear
// in the document, so objects are decoded into Object, which remembers it.
package loader
