package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var backendAlias string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the backend with demo data (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(backendAlias)
		},
	}

	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")

	return cmd
}

func runSeed(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	result, err := e.shell.Client().SeedData(context.Background())
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	if result.Message != "" {
		fmt.Fprintf(e.out, "✓ %s\n", result.Message)
	} else {
		fmt.Fprintln(e.out, "✓ Demo data seeded")
	}
	return nil
}
