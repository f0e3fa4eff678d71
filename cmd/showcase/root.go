package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for showcase.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showcase",
		Short: "Browse and serve read-only record galleries",
		Long: `showcase loads galleries of records (prompts, posts, notes) from JSON
documents and lets you filter, search and read them.

Galleries are defined in a .showcase YAML file searched in the current
directory, the XDG config directory and the home directory. Run
'showcase init' to create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "C", "",
		"Configuration file path (default: .showcase in current or home directory)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewBrowseCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewGateCmd())
	cmd.AddCommand(NewPrefsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
