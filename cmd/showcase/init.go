package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/config"
)

//go:embed templates/showcase.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .showcase configuration file",
		Long: `Init writes a commented .showcase configuration file.

The generated file includes:
- A sample gallery for a flat list of records
- Commented examples of the grouped and groups layouts
- A blog gallery with body files, dates and the reading gate
- Server and markdown settings

Examples:
  # Create .showcase in the current directory
  showcase init

  # Create the config file at a specific path
  showcase init -o galleries.yaml

  # Overwrite an existing file
  showcase init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/showcase.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to define your galleries:")
	fmt.Fprintln(out, "  - Source documents and their layout")
	fmt.Fprintln(out, "  - Field mappings and category labels")
	fmt.Fprintln(out, "  - Page sizes and the reading gate")
	fmt.Fprintln(out, "\nThen run 'showcase validate' to check them.")
	return nil
}
