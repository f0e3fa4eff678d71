// Package main provides the entry point for the showcase CLI.
//
// showcase serves read-only galleries of records (prompts, posts, notes)
// loaded from JSON documents. It can list, search and show records in the
// terminal, browse them interactively, or serve them over HTTP.
//
// Usage:
//
//	showcase init
//	showcase list <gallery>
//	showcase serve --watch
//
// See --help for all available options.
package main

// main is the entry point for showcase.
func main() {
	Execute()
}
