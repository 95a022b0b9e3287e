package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fleetview-sim/internal/config"
	"fleetview-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayTelemetry bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded command or telemetry log",
	Long: "replay re-issues recorded operator commands against a fresh engine, or with --telemetry " +
		"feeds telemetry rows from a log file back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		if replaySpeed <= 0 {
			return fmt.Errorf("speed must be positive, got %v", replaySpeed)
		}
		cfg := config.Default()
		writer, cmdWriter, cleanup, err := newWriters(cfg, outputOptions{PrintOnly: replayPrintOnly})
		if err != nil {
			return err
		}
		defer cleanup()

		if replayTelemetry {
			return sim.ReplayLogFile(replayInput, writer, replaySpeed)
		}

		simulator, err := sim.NewSimulator(cfg, writer, cmdWriter, sim.WithLogger(logger))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		n, err := sim.ReplayCommandsFile(ctx, replayInput, simulator, replaySpeed)
		logger.Info("replay finished", "commands", n, "log_entries", len(simulator.Snapshot().CommandLog))
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to command log (or telemetry log with --telemetry)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to DB")
	replayCmd.Flags().BoolVar(&replayTelemetry, "telemetry", false, "Input is a telemetry log rather than a command log")
	replayCmd.MarkFlagRequired("input")
}
