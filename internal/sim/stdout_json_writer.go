package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fleetview-sim/internal/telemetry"
)

// JSONStdoutWriter prints telemetry and command rows as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a telemetry row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.TelemetryRow) error {
	return w.emit(row)
}

// WriteBatch outputs multiple telemetry rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommand outputs a command log entry in JSON format.
func (w *JSONStdoutWriter) WriteCommand(row telemetry.CommandRow) error {
	return w.emit(row)
}

// WriteCommands outputs multiple command log entries in JSON format.
func (w *JSONStdoutWriter) WriteCommands(rows []telemetry.CommandRow) error {
	for _, r := range rows {
		if err := w.WriteCommand(r); err != nil {
			return err
		}
	}
	return nil
}
