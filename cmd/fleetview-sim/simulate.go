package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fleetview-sim/internal/admin"
	"fleetview-sim/internal/config"
	"fleetview-sim/internal/logging"
	"fleetview-sim/internal/messaging"
	"fleetview-sim/internal/scenario"
	"fleetview-sim/internal/sim"
)

var (
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simFrame      time.Duration
	simPrintOnly  bool
	simColor      bool
	simLogFile    string
	simScript     string
	simAdminAddr  string
	simNoConsole  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time fleet engine",
	Long:  "simulate runs the fleet engine with the operator console on a terminal, or headless with JSON or colored output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if err := applyIntervals(cfg, cmd); err != nil {
			return err
		}

		var script *scenario.Script
		if simScript != "" {
			if script, err = scenario.Lookup(simScript); err != nil {
				return err
			}
		}

		useConsole := !simNoConsole && !simPrintOnly && !simColor && term.IsTerminal(int(os.Stdout.Fd()))
		log := logger
		var console *sim.TUIWriter
		if useConsole {
			// the console owns the terminal
			log = logging.NewWithWriter(io.Discard, logLevel)
			console = sim.NewTUIWriter(cfg.Fleet)
		}

		writer, cmdWriter, cleanup, err := newWriters(cfg, outputOptions{
			PrintOnly: simPrintOnly,
			Color:     simColor,
			LogFile:   simLogFile,
			Console:   console,
		})
		if err != nil {
			if console != nil {
				console.Close()
			}
			return err
		}
		defer cleanup()

		opts := []sim.Option{sim.WithLogger(log)}
		if id := os.Getenv("CLUSTER_ID"); id != "" {
			opts = append(opts, sim.WithSession(id))
		}
		simulator, err := sim.NewSimulator(cfg, writer, cmdWriter, opts...)
		if err != nil {
			if console != nil {
				console.Close()
			}
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		if console != nil {
			cancel := simulator.Subscribe(console.Observe)
			defer cancel()
			console.SetControls(simulator)
		}

		var wg sync.WaitGroup
		if simAdminAddr != "" {
			srv := admin.NewServer(simulator, log)
			defer srv.Close()
			if console != nil {
				console.SetAdminStatus(true)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
					if console != nil {
						console.SetAdminStatus(false)
					}
				}
			}()
		}

		if settings := messaging.SettingsFromEnv(simulator.Session()); settings.Enabled() {
			client := messaging.NewClient(settings, log)
			if err := client.Connect(); err != nil {
				log.Error("messaging connect failed", "backend", settings.Backend, "err", err)
			} else {
				defer client.Close()
				bridge := messaging.NewBridge(client, simulator, settings, log)
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := bridge.Run(ctx); err != nil {
						log.Error("messaging bridge failed", "err", err)
					}
				}()
			}
		}

		if script != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Info("running script", "name", script.Name, "steps", len(script.Steps))
				if err := scenario.NewPlayer(script).Run(ctx, func(c string) { simulator.Command(c) }); err != nil && ctx.Err() == nil {
					log.Error("script failed", "name", script.Name, "err", err)
				}
			}()
		}

		simulator.Run(ctx)
		wg.Wait()
		if console != nil {
			console.Close()
		}
		log.Info("fleet simulation stopped", "ticks", simulator.Snapshot().Ticks)
		return nil
	},
}

// applyIntervals lets --tick/--frame and TELEMETRY_INTERVAL override the config file.
func applyIntervals(cfg *config.Config, cmd *cobra.Command) error {
	if cmd.Flags().Changed("tick") {
		cfg.Engine.TelemetryInterval = simTick
	} else if v := os.Getenv("TELEMETRY_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TELEMETRY_INTERVAL: %w", err)
		}
		cfg.Engine.TelemetryInterval = d
	}
	if cmd.Flags().Changed("frame") {
		cfg.Engine.FrameInterval = simFrame
	}
	if cfg.Engine.TelemetryInterval <= 0 || cfg.Engine.FrameInterval <= 0 {
		return fmt.Errorf("intervals must be positive (tick=%s frame=%s)", cfg.Engine.TelemetryInterval, cfg.Engine.FrameInterval)
	}
	return nil
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/fleetview.yaml", "Path to fleet configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/fleetview.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", config.DefaultTelemetryInterval, "Telemetry tick interval (e.g. 500ms, 2s)")
	simulateCmd.Flags().DurationVar(&simFrame, "frame", config.DefaultFrameInterval, "Animation frame interval")
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print JSON rows to STDOUT instead of writing to DB")
	simulateCmd.Flags().BoolVar(&simColor, "color", false, "Print colored human-readable rows to STDOUT")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry (JSONL); commands go to <path>.commands")
	simulateCmd.Flags().StringVar(&simScript, "script", "", "Built-in script name or path to a script YAML")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin API listen address (empty to disable)")
	simulateCmd.Flags().BoolVar(&simNoConsole, "no-console", false, "Disable the interactive console even on a terminal")
}
