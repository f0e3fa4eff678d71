package model

import "unicode/utf8"

// ListingState says which of the three list views a client should show.
type ListingState string

const (
	// ListingOK means at least one record matched.
	ListingOK ListingState = "ok"

	// ListingEmpty means the collection loaded but nothing matched the
	// filter. Clients show a "no results" placeholder.
	ListingEmpty ListingState = "empty"

	// ListingLoadError means the collection could not be loaded. Clients
	// show an error placeholder instead of the list.
	ListingLoadError ListingState = "load_error"
)

// DefaultExcerptLength is the card excerpt length in runes.
const DefaultExcerptLength = 120

// Card is the projection of a record shown in a list.
type Card struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Excerpt  string   `json:"excerpt,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Date     string   `json:"date,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// NewCard projects r into a card. The excerpt is the description, or the
// start of the body when the description is empty, cut to DefaultExcerptLength.
func NewCard(r Record) Card {
	excerpt := r.Description
	if excerpt == "" {
		excerpt = r.Body
	}
	return Card{
		ID:       r.ID,
		Title:    r.Title,
		Category: r.Category,
		Excerpt:  Truncate(excerpt, DefaultExcerptLength),
		Tags:     r.Tags,
		Date:     r.Date,
		URL:      r.URL,
	}
}

// NewLockedCard projects r into a card without an excerpt, for records
// whose body is hidden. Descriptions may be derived from the body, so they
// are left out too.
func NewLockedCard(r Record) Card {
	c := NewCard(r)
	c.Excerpt = ""
	return c
}

// NewLockedCards projects records into cards without excerpts.
func NewLockedCards(records []Record) []Card {
	cards := make([]Card, len(records))
	for i, r := range records {
		cards[i] = NewLockedCard(r)
	}
	return cards
}

// NewCards projects records into cards.
func NewCards(records []Record) []Card {
	cards := make([]Card, len(records))
	for i, r := range records {
		cards[i] = NewCard(r)
	}
	return cards
}

// Truncate cuts s to at most n runes, appending "..." when anything was
// removed.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Listing is what a gallery view shows for one filter and page state.
type Listing struct {
	// Gallery is the gallery name.
	Gallery string `json:"gallery"`

	// Title is the gallery's display title.
	Title string `json:"title,omitempty"`

	// Filter is the normalized filter state the listing was built for.
	Filter FilterState `json:"filter"`

	// Categories is the category index of the collection.
	Categories CategoryIndex `json:"categories"`

	// Cards are the visible cards.
	Cards []Card `json:"cards"`

	// Total is the number of records in the collection.
	Total int `json:"total"`

	// Matched is the number of records passing the filter.
	Matched int `json:"matched"`

	// Page is the current page (1-based).
	Page int `json:"page"`

	// PageSize is the number of cards per page.
	PageSize int `json:"page_size"`

	// HasMore reports whether LoadMore would reveal more cards.
	HasMore bool `json:"has_more"`

	// State is ok, empty or load_error.
	State ListingState `json:"state"`

	// Error holds the load error message when State is load_error.
	Error string `json:"error,omitempty"`
}
