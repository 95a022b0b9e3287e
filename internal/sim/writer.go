package sim

import "fleetview-sim/internal/telemetry"

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TelemetryRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.TelemetryRow) error
}

// CommandWriter receives command log entries as they are appended.
type CommandWriter interface {
	WriteCommand(telemetry.CommandRow) error
}

// Optional: Command writers may support batch mode
type batchCommandWriter interface {
	WriteCommands([]telemetry.CommandRow) error
}

func writeTelemetry(w TelemetryWriter, rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 || w == nil {
		return nil
	}
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func writeCommands(w CommandWriter, rows []telemetry.CommandRow) error {
	if len(rows) == 0 || w == nil {
		return nil
	}
	if bw, ok := w.(batchCommandWriter); ok {
		return bw.WriteCommands(rows)
	}
	for _, r := range rows {
		if err := w.WriteCommand(r); err != nil {
			return err
		}
	}
	return nil
}
