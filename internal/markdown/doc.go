// Package markdown renders record bodies to sanitized HTML.
//
// The builtin engine tokenizes the body into tagged blocks (headings,
// quotes, fenced code, lists, rules and paragraphs) and then substitutes
// inline spans inside each text run. Code spans are protected before any
// other span is considered, so emphasis markers inside code survive
// untouched. The goldmark engine renders CommonMark instead. Both engines
// pass their output through the same bluemonday policy and both produce a
// table of contents of h1 to h3 headings.
//
// RenderTerminal renders a body for the terminal with glamour.
package markdown
