package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"fleetview-sim/internal/telemetry"
)

// FileWriter writes telemetry and command data to JSONL files.
type FileWriter struct {
	teleFile *os.File
	cmdFile  *os.File
	teleEnc  *json.Encoder
	cmdEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. commandPath may be empty to skip the command log.
func NewFileWriter(telemetryPath, commandPath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, fmt.Errorf("create telemetry log: %w", err)
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if commandPath != "" {
		cf, err := os.Create(commandPath)
		if err != nil {
			tf.Close()
			return nil, fmt.Errorf("create command log: %w", err)
		}
		fw.cmdFile = cf
		fw.cmdEnc = json.NewEncoder(cf)
	}
	return fw, nil
}

// Write logs a single telemetry row.
func (f *FileWriter) Write(row telemetry.TelemetryRow) error {
	return f.teleEnc.Encode(row)
}

// WriteBatch logs multiple telemetry rows.
func (f *FileWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommand logs a single command entry, if enabled.
func (f *FileWriter) WriteCommand(row telemetry.CommandRow) error {
	if f.cmdEnc == nil {
		return nil
	}
	return f.cmdEnc.Encode(row)
}

// WriteCommands logs multiple command entries.
func (f *FileWriter) WriteCommands(rows []telemetry.CommandRow) error {
	for _, r := range rows {
		if err := f.WriteCommand(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.teleFile != nil {
		if e := f.teleFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.cmdFile != nil {
		if e := f.cmdFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
