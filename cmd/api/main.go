package main

import (
	"context"
	"flag"
	"os"

	"github.com/yigit/photoshare/internal/pkg/logger" // Still needed for initial error logging
	"github.com/yigit/photoshare/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	ctx := context.Background()

	srv, err := server.NewServer(ctx, *configPath)
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
