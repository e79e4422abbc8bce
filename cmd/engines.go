package cmd

import (
	"fmt"
	"runtime"

	"github.com/audiolibrelab/sweepbench/internal/engine"

	"github.com/spf13/cobra"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List available engine backends",
	Long:  `List all engine backends that can run the sweep sequence, and which one the current configuration selects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Engine Backends (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		backends := engine.GetAvailableBackends()
		for i, backend := range backends {
			fmt.Printf("  %d. %s\n", i+1, backend)
		}

		fmt.Printf("\nconfigured backend: %s\n", cfg.Engine.Backend)
		fmt.Printf("Set engine.backend in the config file to choose one ('auto' picks the best available).\n")
		return nil
	},
}
