package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photo-album/internal/config"
	"photo-album/internal/server"
)

var logger = log.New(os.Stdout, "[Album] ", log.LstdFlags)

var rootCmd = &cobra.Command{
	Use:   "album",
	Short: "Maintenance commands for the photo album metadata store",
	// Errors are logged by main; usage is only useful for flag mistakes.
	SilenceUsage: true,
}

// Loads configuration and opens the configured backends.
func openServices(ctx context.Context) (*server.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return server.InitServices(ctx, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Printf("command failed: %v", err)
		os.Exit(1)
	}
}
