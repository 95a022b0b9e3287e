package main

import (
	"io"
	"os"

	"fleetview-sim/internal/config"
	"fleetview-sim/internal/sim"
)

// outputOptions selects the sinks for telemetry and command rows.
type outputOptions struct {
	PrintOnly bool
	Color     bool
	LogFile   string
	Console   *sim.TUIWriter
}

// newWriters sets up telemetry and command writers based on flags and env vars.
// It returns the writers and a cleanup function to close any resources.
func newWriters(cfg *config.Config, opts outputOptions) (sim.TelemetryWriter, sim.CommandWriter, func(), error) {
	tws, cws, closers, err := baseWriters(cfg, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".commands")
		if err != nil {
			closeAll(closers)
			return nil, nil, nil, err
		}
		tws = append(tws, fw)
		cws = append(cws, fw)
		closers = append(closers, fw)
	}
	cleanup := func() { closeAll(closers) }
	if len(tws) == 1 && len(cws) == 1 {
		return tws[0], cws[0], cleanup, nil
	}
	mw := sim.NewMultiWriter(tws, cws)
	return mw, mw, cleanup, nil
}

// baseWriters chooses the primary sinks. The console replaces stdout output;
// GreptimeDB is used whenever an endpoint is configured and print-only is off.
func baseWriters(cfg *config.Config, opts outputOptions) ([]sim.TelemetryWriter, []sim.CommandWriter, []io.Closer, error) {
	var (
		tws     []sim.TelemetryWriter
		cws     []sim.CommandWriter
		closers []io.Closer
	)
	switch {
	case opts.Console != nil:
		tws = append(tws, opts.Console)
		cws = append(cws, opts.Console)
	case opts.Color:
		w := sim.NewColorStdoutWriter(cfg.Fleet)
		tws = append(tws, w)
		cws = append(cws, w)
	case opts.PrintOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "":
		w := sim.NewJSONStdoutWriter()
		tws = append(tws, w)
		cws = append(cws, w)
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.PrintOnly || endpoint == "" {
		return tws, cws, closers, nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	gw, err := sim.NewGreptimeDBWriter(endpoint, database)
	if err != nil {
		return nil, nil, nil, err
	}
	gw.WithTables(os.Getenv("GREPTIMEDB_TABLE"), os.Getenv("COMMAND_LOG_TABLE"))
	tws = append(tws, gw)
	cws = append(cws, gw)
	closers = append(closers, gw)
	return tws, cws, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("close writer", "err", err)
		}
	}
}
