package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/showcase/internal/gate"
)

// NewGateCmd creates the gate command and its subcommands.
func NewGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Manage the reading gate of gated galleries",
		Long: `The reading gate hides the bodies of galleries marked 'gated: true'
until the configured password is entered. An unlock lasts for gate.ttl
(default 7 days) and is stored in the local preference database.

The password is configured as a bcrypt hash in .showcase:

  gate:
    password_hash: $2a$10$...

or as plain text in the SHOWCASE_GATE_PASSWORD environment variable.

Examples:
  # Print a hash for the config file (reads the password from stdin)
  showcase gate hash

  # Unlock reading
  showcase gate unlock

  # Show whether reading is unlocked
  showcase gate status`,
	}

	cmd.AddCommand(newGateHashCmd())
	cmd.AddCommand(newGateUnlockCmd())
	cmd.AddCommand(newGateLockCmd())
	cmd.AddCommand(newGateStatusCmd())

	return cmd
}

func newGateHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd, args)
			if err != nil {
				return err
			}
			hash, err := gate.HashPassword(password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, hash)
			fmt.Fprintln(cmd.ErrOrStderr(), "\nAdd it to .showcase:\n\n  gate:\n    password_hash: <hash>")
			return nil
		},
	}
}

func newGateUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock [password]",
		Short: "Unlock reading of gated galleries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeDB, err := openGate(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			password, err := passwordArg(cmd, args)
			if err != nil {
				return err
			}
			until, err := g.Unlock(cmd.Context(), password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reading unlocked until %s\n", until.Local().Format(time.DateTime))
			return nil
		},
	}
}

func newGateLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Lock reading of gated galleries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, closeDB, err := openGate(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := g.Lock(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reading locked")
			return nil
		},
	}
}

func newGateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether reading is unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, closeDB, err := openGate(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			out := cmd.OutOrStdout()
			if !g.Enabled() {
				fmt.Fprintln(out, "Gate: disabled (no password configured)")
				return nil
			}
			until, ok, err := g.Until(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Gate: locked")
				return nil
			}
			fmt.Fprintf(out, "Gate: unlocked until %s\n", until.Local().Format(time.DateTime))
			return nil
		},
	}
}

// openGate loads the settings and returns the gate backed by the
// preference database, and a function closing the database.
func openGate(cmd *cobra.Command) (*gate.Gate, func() error, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	g, err := newGate(cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return g, db.Close, nil
}

// passwordArg returns the password argument, or the first line of stdin
// when no argument is given.
func passwordArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
