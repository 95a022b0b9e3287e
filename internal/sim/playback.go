package sim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/telemetry"
)

// Commander accepts operator command text.
type Commander interface {
	Command(raw string) command.Result
}

// ReplayLog replays telemetry rows from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row telemetry.TelemetryRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		sleepScaled(context.Background(), prev, row.Timestamp, speed)
		if err := writer.Write(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its telemetry rows.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

// ReplayCommands re-issues the operator commands recorded in a command JSONL log.
// Only issued entries are replayed; responses are regenerated by c.
// It returns the number of commands issued.
func ReplayCommands(ctx context.Context, r io.Reader, c Commander, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var row telemetry.CommandRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		if row.Kind != telemetry.CommandIssued {
			continue
		}
		if !sleepScaled(ctx, prev, row.Timestamp, speed) {
			return n, ctx.Err()
		}
		c.Command(strings.TrimPrefix(row.Text, command.IssuedEntry("")))
		n++
		prev = row.Timestamp
	}
}

// ReplayCommandsFile opens a command log and replays it into c.
func ReplayCommandsFile(ctx context.Context, path string, c Commander, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayCommands(ctx, f, c, speed)
}

// sleepScaled waits the gap between prev and next divided by speed.
// It reports false if ctx ended first.
func sleepScaled(ctx context.Context, prev, next time.Time, speed float64) bool {
	if prev.IsZero() || speed <= 0 {
		return ctx.Err() == nil
	}
	diff := next.Sub(prev)
	if speed != 1 {
		diff = time.Duration(float64(diff) / speed)
	}
	if diff <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(diff)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
