package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/tui"
)

// NewBrowseCmd creates the browse command.
func NewBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse <gallery>",
		Short: "Browse a gallery in the terminal",
		Long: `Browse opens an interactive terminal view of a gallery.

Keys:
  /            search titles and text
  tab          next category (shift+tab: previous)
  up/down      move the cursor
  m            load more cards
  enter        open the record
  c            copy the open record
  r            read the open record aloud
  esc          close the record or clear the search
  q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: runBrowseCmd,
	}

	cmd.Flags().String("style", markdown.StyleDark,
		"Record body style: dark, light or notty")

	return cmd
}

// runBrowseCmd executes the browse command.
func runBrowseCmd(cmd *cobra.Command, args []string) error {
	style, err := cmd.Flags().GetString("style")
	if err != nil {
		return err
	}
	cfg, err := loadSettings(cmd)
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

	g, err := newGate(cfg, db)
	if err != nil {
		return err
	}
	gal, err := newGallery(cfg, rep, g,
		detail.WithPlayer(newPlayer(ctx, db, logger)),
		detail.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if err := tui.Run(ctx, gal, tui.WithGlamourStyle(style)); err != nil {
		return fmt.Errorf("browse %s: %w", gal.Name(), err)
	}
	return nil
}
