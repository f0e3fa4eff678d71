// Package report writes listings, load summaries, validation findings and
// load comparisons.
//
// Three writers share the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured output for scripts
//   - MarkdownWriter: tables and mermaid charts for sharing
package report
