package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var backendAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(backendAlias)
		},
	}

	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")

	return cmd
}

func runWhoami(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	user, err := e.shell.RequireAuth(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "%s <%s>\n", user.Name, user.Email)
	fmt.Fprintf(e.out, "Role: %s\n", user.Role)
	return nil
}
