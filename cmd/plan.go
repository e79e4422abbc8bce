package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the sweep plan for the current configuration",
	Long:  `Display the ordered list of sweeps the run command would execute, with per-step parameters and the estimated total duration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sweepCfg, err := cfg.SweepConfig()
		if err != nil {
			return err
		}

		plan, err := sweep.BuildPlan(sweepCfg)
		if err != nil {
			return err
		}

		fmt.Printf("=== SWEEP PLAN (%s mode) ===\n", sweepCfg.Mode)
		for i, step := range plan {
			fmt.Printf("%2d. %s (settle %s)\n", i+1, step, step.PostSilence)
		}
		fmt.Printf("\ntotal steps: %d\n", len(plan))
		fmt.Printf("estimated duration: %s\n", plan.EstimatedDuration())
		return nil
	},
}
