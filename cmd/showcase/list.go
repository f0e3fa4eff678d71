package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/gallery"
	"github.com/nao1215/showcase/internal/index"
	"github.com/nao1215/showcase/internal/model"
)

// errPageAndMore is returned when --page and --more are combined.
var errPageAndMore = errors.New("--page and --more cannot be used together")

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <gallery>",
		Short: "List the records of a gallery",
		Long: `List prints the cards of a gallery for a category and keyword filter.

The keyword matches titles, descriptions and bodies, ignoring case. While a
gated gallery is locked it matches titles only and cards show no excerpt.
Results keep the order of the source document. By default the first page is
shown; --more reveals further pages below it and --page shows a single page.
With --ranked the keyword is run through the full-text index instead and
results are ordered by relevance.

Every load is stored so 'showcase history' can compare it with earlier ones.

Examples:
  # First page of every category
  showcase list prompts

  # Writing prompts mentioning "email", two extra pages
  showcase list prompts -c Writing -q email --more 2

  # Third page only, as JSON
  showcase list prompts --page 3 --json

  # Relevance-ranked search written to a Markdown file
  showcase list prompts -q "cover letter" --ranked --markdown -o out/prompts.md`,
		Args: cobra.ExactArgs(1),
		RunE: runListCmd,
	}

	cmd.Flags().StringP("category", "c", model.CategoryAll,
		"Show only this category")
	cmd.Flags().StringP("query", "q", "",
		"Show only records containing this keyword")
	cmd.Flags().Int("page", 0,
		"Show only this page (1-based)")
	cmd.Flags().Int("more", 0,
		"Reveal this many pages after the first")
	cmd.Flags().IntP("size", "s", 0,
		"Cards per page (default: the gallery's page_size)")
	cmd.Flags().BoolP("ranked", "r", false,
		"Rank --query matches by relevance using the full-text index")
	cmd.Flags().IntP("limit", "l", index.DefaultLimit,
		"Maximum number of ranked results")
	addReportFlags(cmd)

	return cmd
}

// listOptions holds the list command flags.
type listOptions struct {
	filter model.FilterState
	page   int
	more   int
	size   int
	ranked bool
	limit  int
}

func readListOptions(cmd *cobra.Command) (listOptions, error) {
	var (
		o   listOptions
		err error
	)
	if o.filter.Category, err = cmd.Flags().GetString("category"); err != nil {
		return o, err
	}
	if o.filter.Keyword, err = cmd.Flags().GetString("query"); err != nil {
		return o, err
	}
	if o.page, err = cmd.Flags().GetInt("page"); err != nil {
		return o, err
	}
	if o.more, err = cmd.Flags().GetInt("more"); err != nil {
		return o, err
	}
	if o.size, err = cmd.Flags().GetInt("size"); err != nil {
		return o, err
	}
	if o.ranked, err = cmd.Flags().GetBool("ranked"); err != nil {
		return o, err
	}
	if o.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return o, err
	}
	if o.page > 0 && o.more > 0 {
		return o, errPageAndMore
	}
	if o.page < 0 || o.more < 0 {
		return o, errors.New("--page and --more must not be negative")
	}
	return o, nil
}

// query converts the options into a listing query.
func (o listOptions) query() gallery.Query {
	q := gallery.Query{Filter: o.filter, PageSize: o.size}
	if o.page > 0 {
		q.Page = o.page
		q.Mode = gallery.ModePage
		return q
	}
	q.Page = 1 + o.more
	q.Mode = gallery.ModeAppend
	return q
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := readReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	opts, err := readListOptions(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx := cmd.Context()

	rep, err := loadOne(ctx, cfg, logger, args[0])
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	saveReports(ctx, db, []*model.LoadReport{rep}, logger)

	gt, err := newGate(cfg, db)
	if err != nil {
		return err
	}
	g, err := newGallery(cfg, rep, gt)
	if err != nil {
		return err
	}

	var listing model.Listing
	if opts.ranked {
		listing, err = rankedListing(g, opts.filter, opts.limit)
	} else {
		listing, err = g.Query(opts.query())
	}
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOut()

	_, err = newReportWriter(cfg, out).WriteListing(listing)
	return err
}

// rankedListing runs st.Keyword through a full-text index of g and returns
// the hits, best first, as a single page.
func rankedListing(g *gallery.Gallery, st model.FilterState, limit int) (model.Listing, error) {
	base, err := g.Query(gallery.Query{Filter: st, Page: 1, PageSize: 1, Mode: gallery.ModePage})
	if err != nil {
		return model.Listing{}, err
	}
	if base.State == model.ListingLoadError {
		return base, nil
	}

	idx, err := index.Build(g.Collection())
	if err != nil {
		return model.Listing{}, err
	}
	defer idx.Close()

	search := idx.Search
	if g.Locked() {
		search = idx.SearchTitles
	}
	hits, err := search(st.Keyword, base.Filter.Category, limit)
	if err != nil {
		if errors.Is(err, index.ErrEmptyQuery) {
			return model.Listing{}, fmt.Errorf("--ranked needs a --query: %w", err)
		}
		return model.Listing{}, err
	}

	records := make([]model.Record, len(hits))
	for i, h := range hits {
		records[i] = h.Record
	}
	if g.Locked() {
		base.Cards = model.NewLockedCards(records)
	} else {
		base.Cards = model.NewCards(records)
	}
	base.Matched = len(hits)
	base.Page = 1
	base.PageSize = max(limit, len(hits))
	base.HasMore = false
	base.State = model.ListingOK
	if len(hits) == 0 {
		base.State = model.ListingEmpty
	}
	return base, nil
}
