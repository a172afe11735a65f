package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecocollect-dev/ecocollect/internal/cli/backendselect"
	"github.com/ecocollect-dev/ecocollect/internal/cli/config"
	"github.com/ecocollect-dev/ecocollect/internal/cli/userconfig"
)

// NewSelectBackendCmd creates the select-backend command
func NewSelectBackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-backend",
		Short: "Choose which backend subsequent commands talk to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectBackend()
		},
	}

	return cmd
}

func runSelectBackend() error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'ecocollect init' to create a configuration file", err)
	}

	backend, err := backendselect.PromptBackendSelection(cfg)
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedBackend(backend.URL); err != nil {
		return fmt.Errorf("failed to save selected backend: %w", err)
	}

	fmt.Printf("✓ Selected backend: %s (%s)\n", backend.Alias, backend.URL)
	return nil
}
