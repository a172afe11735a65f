package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecocollect-dev/ecocollect/internal/config"
	"github.com/ecocollect-dev/ecocollect/internal/logger"
	"github.com/ecocollect-dev/ecocollect/internal/server"
)

// NewSandboxCmd creates the sandbox command. The sandbox is a local
// backend that mirrors the documented API for development and tests;
// it is not the production service.
func NewSandboxCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local sandbox backend",
		Long: `Run a local backend implementing the EcoCollect API against a
sqlite database. Useful for trying the CLI without a deployment:

  ecocollect sandbox --addr :8080

then point ecocollect.json at http://localhost:8080.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSandbox(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}

func runSandbox(addr string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	zlog := logger.GetLogger()

	srv, err := server.New(cfg, zlog)
	if err != nil {
		return fmt.Errorf("failed to initialize sandbox: %w", err)
	}

	zlog.Info().Str("addr", addr).Msg("Sandbox backend listening")
	return srv.Run(addr)
}
