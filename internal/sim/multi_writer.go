package sim

import (
	"errors"
	"io"

	"fleetview-sim/internal/telemetry"
)

// MultiWriter fan-outs telemetry and command rows to multiple writers.
type MultiWriter struct {
	telewriters []TelemetryWriter
	cmdwriters  []CommandWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TelemetryWriter, cws []CommandWriter) *MultiWriter {
	return &MultiWriter{telewriters: tws, cmdwriters: cws}
}

// Write sends a telemetry row to all writers. Every writer is tried; errors are joined.
func (mw *MultiWriter) Write(row telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		if err := w.Write(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple telemetry rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		if err := writeTelemetry(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteCommand sends a command row to all command writers.
func (mw *MultiWriter) WriteCommand(row telemetry.CommandRow) error {
	var errs []error
	for _, w := range mw.cmdwriters {
		if err := w.WriteCommand(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteCommands sends multiple command rows to all command writers, using batch if supported.
func (mw *MultiWriter) WriteCommands(rows []telemetry.CommandRow) error {
	var errs []error
	for _, w := range mw.cmdwriters {
		if err := writeCommands(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped writer that implements io.Closer once.
func (mw *MultiWriter) Close() error {
	seen := make(map[any]struct{})
	var errs []error
	closeOne := func(v any) {
		c, ok := v.(io.Closer)
		if !ok {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, w := range mw.telewriters {
		closeOne(w)
	}
	for _, w := range mw.cmdwriters {
		closeOne(w)
	}
	return errors.Join(errs...)
}
