package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/sweepbench/internal/engine"
	"github.com/audiolibrelab/sweepbench/internal/service"
	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full sweep sequence",
	Long: `Run the configured sweep sequence to completion: every waveform on
every oscillator kind, strictly in order, with status printed before and
after each sweep. Press Ctrl-C to cancel; the active oscillator is
silenced before the program exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunOverrides(cmd)

		// Engine operation traces go to stderr at verbose level 2+
		var logWriter io.Writer = io.Discard
		if verboseLevel >= 2 {
			logWriter = os.Stderr
		}

		opts := []service.Option{
			service.WithReporter(sweep.WriterReporter{W: os.Stdout}),
		}

		// Fault injection against the simulated engine, for rehearsing
		// the failure path
		failAt, _ := cmd.Flags().GetInt("fail-at")
		if failAt > 0 {
			opts = append(opts, service.WithHandleFactory(func() engine.Handle {
				e := engine.NewSimEngine(logWriter)
				e.FailSweepAt = failAt
				return e
			}))
		}

		svc, err := service.New(cfg, logWriter, opts...)
		if err != nil {
			return fmt.Errorf("invalid sweep configuration: %w", err)
		}

		plan, err := svc.Plan()
		if err != nil {
			return err
		}
		fmt.Printf("Running %d sweeps (about %s)...\n", len(plan), plan.EstimatedDuration())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := svc.Trigger(ctx); err != nil {
			return fmt.Errorf("sweep sequence failed: %w", err)
		}
		return nil
	},
}

// applyRunOverrides folds command-line overrides into the loaded config
func applyRunOverrides(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetFloat64("start-freq"); v > 0 {
		cfg.Sweep.StartFreq = v
	}
	if v, _ := cmd.Flags().GetFloat64("end-freq"); v > 0 {
		cfg.Sweep.EndFreq = v
	}
	if v, _ := cmd.Flags().GetDuration("duration"); v > 0 {
		cfg.Sweep.Duration = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Sweep.Mode = v
	}
}

func init() {
	runCmd.Flags().Float64("start-freq", 0, "sweep start frequency in Hz (overrides config)")
	runCmd.Flags().Float64("end-freq", 0, "sweep end frequency in Hz (overrides config)")
	runCmd.Flags().Duration("duration", 0, "per-sweep duration, e.g. 5s (overrides config)")
	runCmd.Flags().String("mode", "", "sweep mode: engine-timed or host-driven (overrides config)")
	runCmd.Flags().Int("fail-at", 0, "make the simulated engine fail on the n-th sweep (for demos)")
}
