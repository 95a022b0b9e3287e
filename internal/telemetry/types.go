// Telemetry rows exported to writers and GreptimeDB
package telemetry

import (
	"os"
	"time"

	"fleetview-sim/internal/fleet"
)

// TelemetryRow represents one robot's vitals at the end of a tick.
type TelemetryRow struct {
	Session     string       `json:"session"`     // TAG
	RobotID     string       `json:"robot_id"`    // TAG
	Name        string       `json:"name"`        // FIELD
	Status      fleet.Status `json:"status"`      // FIELD
	Battery     float64      `json:"battery"`     // FIELD
	Speed       float64      `json:"speed"`       // FIELD
	Temperature float64      `json:"temperature"` // FIELD
	X           float64      `json:"x"`           // FIELD
	Z           float64      `json:"z"`           // FIELD
	Heading     float64      `json:"heading"`     // FIELD
	Focused     bool         `json:"focused"`     // FIELD
	Paused      bool         `json:"paused"`      // FIELD
	Tick        uint64       `json:"tick"`        // FIELD
	Timestamp   time.Time    `json:"ts"`          // TIME INDEX
}

// Command log entry kinds.
const (
	CommandIssued   = "issued"
	CommandResponse = "response"
)

// CommandRow is one command log entry with its position in the log.
type CommandRow struct {
	Session   string    `json:"session"`
	Seq       int       `json:"seq"`
	Kind      string    `json:"kind"`
	Intent    string    `json:"intent,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
}

// TelemetryTableName holds the table name used when writing to GreptimeDB.
// It defaults to "robot_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TelemetryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "robot_telemetry"
}()

func (TelemetryRow) TableName() string {
	return TelemetryTableName
}

// CommandTableName is the GreptimeDB table for command log entries.
var CommandTableName = func() string {
	if env := os.Getenv("COMMAND_LOG_TABLE"); env != "" {
		return env
	}
	return "fleet_command_log"
}()

func (CommandRow) TableName() string {
	return CommandTableName
}

// Rows converts a state snapshot into one telemetry row per robot.
func Rows(s fleet.State, ts time.Time) []TelemetryRow {
	rows := make([]TelemetryRow, 0, len(s.Robots))
	for _, r := range s.Robots {
		rows = append(rows, TelemetryRow{
			Session:     s.Session,
			RobotID:     r.ID,
			Name:        r.Name,
			Status:      r.Status,
			Battery:     r.Battery,
			Speed:       r.Speed,
			Temperature: r.Temperature,
			X:           r.Position.X,
			Z:           r.Position.Z,
			Heading:     r.Heading,
			Focused:     s.FocusedRobot != nil && *s.FocusedRobot == r.ID,
			Paused:      s.Paused,
			Tick:        s.Ticks,
			Timestamp:   ts,
		})
	}
	return rows
}
