package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewWasteTypesCmd creates the waste-types command
func NewWasteTypesCmd() *cobra.Command {
	var backendAlias string

	cmd := &cobra.Command{
		Use:   "waste-types",
		Short: "List bookable waste categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWasteTypes(backendAlias)
		},
	}

	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")

	return cmd
}

func runWasteTypes(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	// Public endpoint: works with or without a session.
	types, err := e.shell.Client().WasteTypes(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load waste types: %w", err)
	}

	if len(types) == 0 {
		fmt.Fprintln(e.out, "No waste types available.")
		fmt.Fprintln(e.out, "\nRun 'ecocollect seed' to load demo data on a fresh backend.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE/KG\tDESCRIPTION")
	fmt.Fprintln(w, "──\t────\t────────\t───────────")

	for _, wt := range types {
		fmt.Fprintf(w, "%s\t%s\t$%.2f\t%s\n", wt.ID, wt.Name, wt.PricePerKG, wt.Description)
	}

	return w.Flush()
}
