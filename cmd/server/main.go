package main

import (
	"fmt"
	"os"

	"github.com/ecocollect-dev/ecocollect/internal/config"
	"github.com/ecocollect-dev/ecocollect/internal/logger"
	"github.com/ecocollect-dev/ecocollect/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Info().Str("addr", addr).Msg("Starting EcoCollect sandbox server...")

	// Start HTTP server (this blocks)
	if err := srv.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
