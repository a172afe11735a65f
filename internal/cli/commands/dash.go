package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var backendAlias string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the web dashboard in browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(backendAlias)
		},
	}

	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")

	return cmd
}

func runDash(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Opening dashboard for %s...\n", e.backend.Alias)
	fmt.Fprintf(e.out, "URL: %s\n", e.backend.URL)

	if err := openBrowser(e.backend.URL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, e.backend.URL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
