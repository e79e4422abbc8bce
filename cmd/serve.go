package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/sweepbench/internal/server"
	"github.com/audiolibrelab/sweepbench/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web control panel",
	Long: `Start the sweepbench web server to trigger and watch sweep sequences
from a browser. The panel shows live status and allows cancelling a
running sequence.

The server will display the local network URL for easy access from
other devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.Server.Port
		}

		var logWriter io.Writer = io.Discard
		if verboseLevel >= 2 {
			logWriter = os.Stderr
		}

		svc, err := service.New(cfg, logWriter)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		srv := server.New(svc, port)

		slog.Info("sweepbench web server starting", "port", port, "config", cfgFile)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Start blocks until shutdown
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the web server (default from config, 8080)")
}
