package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var backendAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(backendAlias)
		},
	}

	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")

	return cmd
}

func runLogout(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	// The server-side logout is best-effort; the local session is
	// cleared regardless of its outcome.
	if err := e.shell.Logout(context.Background()); err != nil {
		return err
	}

	fmt.Fprintln(e.out, "✓ Logged out")
	return nil
}
