package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/telemetry"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	return out
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	tRow := telemetry.TelemetryRow{Session: "s1", RobotID: "AMR-001", Status: fleet.StatusActive, Battery: 87, X: -6, Z: 1.5, Timestamp: ts}
	cRow := telemetry.CommandRow{Session: "s1", Seq: 0, Kind: telemetry.CommandIssued, Intent: "pause", Text: "> pause", Timestamp: ts}

	cases := []struct {
		name   string
		path   string
		write  func(*FileWriter) error
		decode func([]byte)
	}{
		{
			name:  "telemetry",
			path:  filepath.Join(dir, "telemetry.jsonl"),
			write: func(fw *FileWriter) error { return fw.WriteBatch([]telemetry.TelemetryRow{tRow}) },
			decode: func(b []byte) {
				var got telemetry.TelemetryRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode telemetry: %v", err)
				}
				if got.RobotID != tRow.RobotID || got.Battery != tRow.Battery || got.Z != tRow.Z || !got.Timestamp.Equal(ts) {
					t.Fatalf("unexpected telemetry: %#v", got)
				}
			},
		},
		{
			name:  "commands",
			path:  filepath.Join(dir, "commands.jsonl"),
			write: func(fw *FileWriter) error { return fw.WriteCommands([]telemetry.CommandRow{cRow}) },
			decode: func(b []byte) {
				var got telemetry.CommandRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode command: %v", err)
				}
				if got.Text != cRow.Text || got.Kind != cRow.Kind || got.Intent != cRow.Intent || !got.Timestamp.Equal(ts) {
					t.Fatalf("unexpected command: %#v", got)
				}
			},
		},
	}

	fw, err := NewFileWriter(cases[0].path, cases[1].path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	for _, tc := range cases {
		if err := tc.write(fw); err != nil {
			t.Fatalf("%s write: %v", tc.name, err)
		}
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, tc := range cases {
		lines := readLines(t, tc.path)
		if len(lines) != 1 {
			t.Fatalf("%s: expected 1 line, got %d", tc.name, len(lines))
		}
		tc.decode(lines[0])
	}
}

func TestFileWriterWithoutCommandLog(t *testing.T) {
	fw, err := NewFileWriter(filepath.Join(t.TempDir(), "telemetry.jsonl"), "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteCommand(telemetry.CommandRow{Text: "> help"}); err != nil {
		t.Fatalf("disabled command log should be a no-op, got %v", err)
	}
}

func TestFileWriterBadPath(t *testing.T) {
	if _, err := NewFileWriter(filepath.Join(t.TempDir(), "missing", "t.jsonl"), ""); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
