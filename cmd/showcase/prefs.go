package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/database"
)

// NewPrefsCmd creates the prefs command and its subcommands.
func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage stored preference flags",
		Long: `Preferences are small flags stored in the local database, such as
whether the welcome notice was dismissed or the read-aloud voice.

Known keys:
  greeting.dismissed       welcome notice dismissed
  voice.rate               read-aloud speed relative to normal (e.g. 1.25)
  voice.name               read-aloud voice name
  reading.unlocked_until   reading gate expiry (use 'showcase gate')

Examples:
  showcase prefs list
  showcase prefs set voice.rate 1.25
  showcase prefs set greeting.dismissed true --ttl 720h
  showcase prefs delete voice.name`,
	}

	cmd.AddCommand(newPrefsListCmd())
	cmd.AddCommand(newPrefsSetCmd())
	cmd.AddCommand(newPrefsDeleteCmd())
	cmd.AddCommand(newPrefsPurgeCmd())

	return cmd
}

func newPrefsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openPrefs(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			prefs, err := db.ListPreferences(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(prefs) == 0 {
				fmt.Fprintln(out, "No preferences stored.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tEXPIRES")
			for _, p := range prefs {
				expires := "never"
				if !p.ExpiresAt.IsZero() {
					expires = p.ExpiresAt.Local().Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Key, p.Value, expires)
			}
			return tw.Flush()
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := cmd.Flags().GetDuration("ttl")
			if err != nil {
				return err
			}
			if ttl < 0 {
				return fmt.Errorf("invalid ttl %s: must not be negative", ttl)
			}
			if args[0] == database.KeyReadingUnlockedUntil {
				return fmt.Errorf("%s is managed by 'showcase gate unlock'", args[0])
			}

			db, err := openPrefs(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetPreference(cmd.Context(), args[0], args[1], ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 0, "Expire the value after this duration (0 keeps it)")
	return cmd
}

func newPrefsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openPrefs(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeletePreference(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newPrefsPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openPrefs(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired preferences\n", n)
			return nil
		},
	}
}

func openPrefs(cmd *cobra.Command) (*database.PrefDB, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	return openDB(cfg)
}
