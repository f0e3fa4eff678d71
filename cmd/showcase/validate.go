package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/config"
	"github.com/nao1215/showcase/internal/crawler"
	"github.com/nao1215/showcase/internal/report"
	"github.com/nao1215/showcase/internal/validate"
)

// errValidationFailed is returned when a finding has error severity.
var errValidationFailed = errors.New("validation failed")

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [gallery...]",
		Short: "Check gallery definitions and sources",
		Long: `Validate loads galleries and reports structural problems:

- sources that cannot be fetched or decoded
- galleries without records
- records without a title, or with a duplicate title
- records without a body, description or link
- records without a category
- unreadable body files

With --check-links, record URLs and links inside HTML bodies are requested
and broken ones are reported. The command exits with an error when any
finding has error severity.

Examples:
  # Validate every configured gallery
  showcase validate

  # Validate one gallery and check its links
  showcase validate blog --check-links`,
		Args: cobra.ArbitraryArgs,
		RunE: runValidateCmd,
	}

	cmd.Flags().BoolP("check-links", "L", false,
		"Request record links and report broken ones")
	cmd.Flags().Int("link-concurrency", config.DefaultLinkCheckConcurrency,
		"Number of parallel link checks")
	cmd.Flags().StringSlice("ignore", nil,
		"URL path patterns to skip when checking links")
	addReportFlags(cmd)

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, args []string) error {
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
	if err := cfg.ValidateGalleries(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	checkLinks, err := cmd.Flags().GetBool("check-links")
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("link-concurrency")
	if err != nil {
		return err
	}
	ignore, err := cmd.Flags().GetStringSlice("ignore")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx := cmd.Context()

	reports, err := loadReports(ctx, cfg, logger, args...)
	if err != nil {
		return err
	}

	opts := []validate.Option{validate.WithLogger(logger)}
	if checkLinks {
		checker := crawler.NewLinkChecker(
			&http.Client{Timeout: cfg.Timeout},
			crawler.WithConcurrency(concurrency),
			crawler.WithUserAgent(cfg.UserAgent),
			crawler.WithIgnorePatterns(ignore),
		)
		opts = append(opts, validate.WithLinkChecker(checker))
	}

	findings, err := validate.New(opts...).ValidateAll(ctx, reports)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOut()

	w := newReportWriter(cfg, out)
	if cfg.ReportFile != "" {
		// A report written to a file is echoed to stdout as text.
		w = report.NewMultiWriter(w, report.NewSimpleWriter(cmd.OutOrStdout()))
	}
	if !cfg.JSONReport {
		if _, err := w.WriteLoads(reports); err != nil {
			return err
		}
	}
	if _, err := w.WriteFindings(findings); err != nil {
		return err
	}

	if validate.HasErrors(findings) {
		return errValidationFailed
	}
	return nil
}
