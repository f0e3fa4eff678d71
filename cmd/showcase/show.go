package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/detail"
	"github.com/nao1215/showcase/internal/markdown"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/speech"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <gallery> <id>",
		Short: "Show one record in full",
		Long: `Show prints a record's title, badges and body. The body is rendered as
markdown for the terminal, or as sanitized HTML with --html.

Record ids are the positions shown by 'showcase list' and do not change
with the filter. Records of gated galleries stay hidden until the reading
gate is unlocked with 'showcase gate unlock'.

Examples:
  # Render record 3 of the prompts gallery
  showcase show prompts 3

  # Copy the body to the clipboard
  showcase show prompts 3 --copy

  # Read it aloud (needs say, espeak-ng, espeak or spd-say)
  showcase show prompts 3 --speak`,
		Args: cobra.ExactArgs(2),
		RunE: runShowCmd,
	}

	cmd.Flags().Bool("html", false,
		"Print the sanitized HTML body instead of terminal markdown")
	cmd.Flags().Bool("copy", false,
		"Copy the raw body to the clipboard")
	cmd.Flags().Bool("speak", false,
		"Read the record aloud and wait until it finishes")
	cmd.Flags().String("style", markdown.StyleAuto,
		"Terminal style: auto, dark, light or notty")
	cmd.Flags().Int("width", markdown.DefaultWrap,
		"Terminal word wrap width")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[1])
	if err != nil || id < 1 {
		return fmt.Errorf("invalid record id %q: must be a positive integer", args[1])
	}
	asHTML, _ := cmd.Flags().GetBool("html")
	copyBody, _ := cmd.Flags().GetBool("copy")
	speak, _ := cmd.Flags().GetBool("speak")
	style, _ := cmd.Flags().GetString("style")
	width, _ := cmd.Flags().GetInt("width")

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	modalOpts := []detail.Option{detail.WithLogger(logger)}
	var player *speech.Player
	if speak {
		player = newPlayer(ctx, db, logger)
		modalOpts = append(modalOpts, detail.WithPlayer(player))
	}

	gal, err := newGallery(cfg, rep, g, modalOpts...)
	if err != nil {
		return err
	}
	if gal.Failed() {
		return fmt.Errorf("gallery %s could not be loaded: %w", gal.Name(), gal.Err())
	}

	view, err := gal.Open(id)
	if err != nil {
		return err
	}
	modal := gal.Modal()
	defer modal.Close(detail.CloseControl) //nolint:errcheck // the modal is discarded

	out := cmd.OutOrStdout()
	if err := writeView(out, view, asHTML, style, width); err != nil {
		return err
	}
	if view.Locked {
		return nil
	}

	if copyBody {
		toast := modal.Copy(detail.SystemClipboard{})
		fmt.Fprintln(cmd.ErrOrStderr(), toast.Message)
	}

	if speak {
		started, err := modal.ReadAloud(ctx)
		if err != nil {
			return fmt.Errorf("read aloud: %w", err)
		}
		if started {
			fmt.Fprintln(cmd.ErrOrStderr(), "Reading aloud, press Ctrl+C to stop")
			if err := player.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("read aloud: %w", err)
			}
		}
	}
	return nil
}

// writeView prints a record for the terminal or as HTML.
func writeView(w io.Writer, v detail.View, asHTML bool, style string, width int) error {
	r := v.Record
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s\n", r.ID, r.Title)
	if len(v.Badges) > 0 {
		fmt.Fprintf(&sb, "[%s]\n", strings.Join(v.Badges, "] ["))
	}
	if r.Date != "" {
		fmt.Fprintf(&sb, "Date: %s\n", r.Date)
	}
	if r.URL != "" {
		fmt.Fprintf(&sb, "Link: %s\n", r.URL)
	}
	sb.WriteString("\n")

	switch {
	case v.Locked:
		sb.WriteString("This record is locked. Run 'showcase gate unlock' to read it.\n")
	case asHTML:
		sb.WriteString(v.BodyHTML)
		sb.WriteString("\n")
	default:
		body := r.Body
		if body == "" {
			body = r.Description
		}
		rendered, err := markdown.RenderTerminal(body, style, width)
		if err != nil {
			return err
		}
		sb.WriteString(rendered)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
