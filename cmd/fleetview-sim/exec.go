package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fleetview-sim/internal/config"
	"fleetview-sim/internal/sim"
)

var (
	execConfigPath string
	execSchemaPath string
	execTicks      int
)

var execCmd = &cobra.Command{
	Use:   "exec <command>...",
	Short: "Run operator commands against a fresh engine",
	Long:  "exec seeds an engine, optionally advances it a number of telemetry ticks, issues each argument as a command and prints the resulting log.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if execConfigPath != "" {
			var err error
			if cfg, err = config.Load(execConfigPath, execSchemaPath); err != nil {
				return err
			}
		}
		simulator, err := sim.NewSimulator(cfg, nil, nil, sim.WithLogger(logger))
		if err != nil {
			return err
		}
		for i := 0; i < execTicks; i++ {
			simulator.Tick()
		}
		out := cmd.OutOrStdout()
		for _, raw := range args {
			for _, line := range simulator.Command(raw).Entries {
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

func init() {
	execCmd.Flags().StringVar(&execConfigPath, "config", "", "Path to fleet configuration YAML (default: built-in fleet)")
	execCmd.Flags().StringVar(&execSchemaPath, "schema", "schemas/fleetview.cue", "Path to CUE schema file")
	execCmd.Flags().IntVar(&execTicks, "ticks", 0, "Telemetry ticks to run before issuing commands")
}
