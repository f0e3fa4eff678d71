package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/database"
	"github.com/nao1215/showcase/internal/model"
	"github.com/nao1215/showcase/internal/report"
)

// idWidth is the number of load ID characters shown in history tables.
const idWidth = 8

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [gallery]",
		Short: "Compare a gallery with earlier loads",
		Long: `History compares stored loads of a gallery and shows:
- Records added since the earlier load
- Records removed since the earlier load
- Changes in category counts

Every 'showcase serve', 'list', 'show' and 'browse' stores a load report.
Records are matched by content, so an edited record shows up as one
removal and one addition.

Examples:
  # Compare the latest two loads
  showcase history prompts

  # List stored loads
  showcase history --list prompts

  # Compare with a specific load (an ID prefix is enough)
  showcase history --with-id 3f2a9c prompts

  # Compare with the first load since a date
  showcase history --since 2025-01-01 prompts

  # Summary of the latest load
  showcase history --latest prompts

  # List galleries with stored loads
  showcase history --list-galleries`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored loads for the gallery")
	cmd.Flags().BoolP("list-galleries", "L", false,
		"List galleries with stored loads")
	cmd.Flags().Bool("latest", false,
		"Summarize the latest load instead of comparing")
	cmd.Flags().StringP("with-id", "i", "",
		"Compare with the load with this ID or ID prefix (see --list)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first load on or after this date (YYYY-MM-DD)")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listGalleries, err := cmd.Flags().GetBool("list-galleries")
	if err != nil {
		return err
	}
	// Validate arguments before opening the database.
	var name string
	if !listGalleries {
		if len(args) == 0 {
			return errors.New("gallery name is required (use --list-galleries to see stored galleries)")
		}
		name = args[0]
	}

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

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listGalleries {
		return listStoredGalleries(ctx, out, db)
	}
	if list, _ := cmd.Flags().GetBool("list"); list {
		return listLoadHistory(ctx, out, db, name)
	}

	w, closeOut, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOut()
	writer := newReportWriter(cfg, w)

	if latest, _ := cmd.Flags().GetBool("latest"); latest {
		rep, err := db.GetLatestLoadReport(ctx, name)
		if err != nil {
			return err
		}
		if rep == nil {
			return fmt.Errorf("no load history found for %s", name)
		}
		_, err = writer.WriteLoads([]*model.LoadReport{rep})
		return err
	}

	withID, _ := cmd.Flags().GetString("with-id")
	since, _ := cmd.Flags().GetString("since")
	old, cur, err := pickLoads(ctx, db, name, withID, since)
	if err != nil {
		return err
	}
	_, err = writer.WriteComparison(report.Compare(old, cur))
	return err
}

// listStoredGalleries prints the galleries that have stored loads.
func listStoredGalleries(ctx context.Context, w io.Writer, db *database.PrefDB) error {
	galleries, err := db.ListGalleries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list galleries: %w", err)
	}

	if len(galleries) == 0 {
		fmt.Fprintln(w, "No stored loads found in the database.")
		fmt.Fprintln(w, "\nUse 'showcase list <gallery>' to load a gallery.")
		return nil
	}

	fmt.Fprintf(w, "Galleries with stored loads (%d):\n\n", len(galleries))
	for _, g := range galleries {
		fmt.Fprintf(w, "  • %s\n", g)
	}
	fmt.Fprintln(w, "\nUse 'showcase history --list <gallery>' to see the loads of a gallery.")
	return nil
}

// listLoadHistory prints the stored loads of a gallery, newest first.
func listLoadHistory(ctx context.Context, w io.Writer, db *database.PrefDB, name string) error {
	loads, err := db.ListLoadReports(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get load history: %w", err)
	}

	if len(loads) == 0 {
		fmt.Fprintf(w, "No load history found for %s\n", name)
		return nil
	}

	fmt.Fprintf(w, "Load history for %s (%d loads):\n\n", name, len(loads))
	fmt.Fprintf(w, "  %-*s  %-19s  %7s  %s\n", idWidth, "ID", "Date", "Records", "Categories")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 66))

	for _, meta := range loads {
		fmt.Fprintf(w, "  %-*s  %-19s  %7d  %s\n",
			idWidth, shortID(meta.ID),
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			meta.RecordCount,
			formatCategorySummary(meta),
		)
	}

	fmt.Fprintf(w, "\nUse 'showcase history %s' to compare the latest two loads.\n", name)
	fmt.Fprintf(w, "Use 'showcase history --with-id <id> %s' to compare with a specific load.\n", name)
	return nil
}

func shortID(id string) string {
	if len(id) > idWidth {
		return id[:idWidth]
	}
	return id
}

// formatCategorySummary formats the category counts of a load, largest
// first, or the load error.
func formatCategorySummary(meta database.LoadReportMetadata) string {
	if meta.Error != "" {
		return "failed: " + model.Truncate(meta.Error, 40)
	}
	if len(meta.CategoryCounts) == 0 {
		return "-"
	}
	rep := &model.LoadReport{CategoryCounts: meta.CategoryCounts}
	labels := rep.SortedCategories()
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s:%d", label, meta.CategoryCounts[label]))
	}
	return model.Truncate(strings.Join(parts, " "), 60)
}

// pickLoads returns the earlier and the latest load to compare. The latest
// load is always the current one; the earlier one is chosen by ID prefix,
// by date, or is the one before the latest.
func pickLoads(ctx context.Context, db *database.PrefDB, name, withID, since string) (old, cur *model.LoadReport, err error) {
	if withID != "" && since != "" {
		return nil, nil, errors.New("--with-id and --since cannot be used together")
	}

	reports, err := db.GetLoadHistory(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get load history: %w", err)
	}
	if len(reports) == 0 {
		return nil, nil, fmt.Errorf("no load history found for %s", name)
	}
	cur = reports[0]

	switch {
	case withID != "":
		for _, r := range reports[1:] {
			if strings.HasPrefix(r.ID, withID) {
				return r, cur, nil
			}
		}
		if strings.HasPrefix(cur.ID, withID) {
			return nil, nil, fmt.Errorf("load %s is the latest load; pick an earlier one", withID)
		}
		// An exact ID from another gallery gets a clearer error.
		other, err := db.GetLoadReportByID(ctx, withID)
		if err != nil {
			return nil, nil, err
		}
		if other != nil {
			return nil, nil, fmt.Errorf("load %s belongs to %s, not %s", withID, other.Gallery, name)
		}
		return nil, nil, fmt.Errorf("load %s not found for %s", withID, name)

	case since != "":
		day, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// Reports are newest first, so walk backwards to find the oldest
		// load on or after the date.
		for i := len(reports) - 1; i >= 1; i-- {
			if !reports[i].StartedAt.Before(day) {
				return reports[i], cur, nil
			}
		}
		return nil, nil, fmt.Errorf("no earlier load found since %s", since)

	default:
		if len(reports) < 2 {
			return nil, nil, fmt.Errorf("at least 2 loads are required for comparison (found %d)", len(reports))
		}
		return reports[1], cur, nil
	}
}
