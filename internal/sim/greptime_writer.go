package sim

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"

	"fleetview-sim/internal/telemetry"
)

const (
	defaultGreptimePort = 4001
	greptimeTimeout     = 5 * time.Second
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes telemetry and command log rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client         greptimeClient
	telemetryTable string
	commandTable   string
}

// NewGreptimeDBWriter connects to endpoint (host[:port]) and targets database.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:         client,
		telemetryTable: telemetry.TelemetryTableName,
		commandTable:   telemetry.CommandTableName,
	}, nil
}

// WithTables overrides the target table names; empty values keep the defaults.
func (w *GreptimeDBWriter) WithTables(telemetryTable, commandTable string) *GreptimeDBWriter {
	if telemetryTable != "" {
		w.telemetryTable = telemetryTable
	}
	if commandTable != "" {
		w.commandTable = commandTable
	}
	return w
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("greptime endpoint %q: invalid port: %w", endpoint, err)
	}
	return host, port, nil
}

// Write inserts a single telemetry row.
func (w *GreptimeDBWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch inserts multiple telemetry rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.telemetryTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session", types.STRING)
	tbl.AddTagColumn("robot_id", types.STRING)
	tbl.AddFieldColumn("name", types.STRING)
	tbl.AddFieldColumn("status", types.STRING)
	tbl.AddFieldColumn("battery", types.FLOAT64)
	tbl.AddFieldColumn("speed", types.FLOAT64)
	tbl.AddFieldColumn("temperature", types.FLOAT64)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("z", types.FLOAT64)
	tbl.AddFieldColumn("heading", types.FLOAT64)
	tbl.AddFieldColumn("focused", types.BOOLEAN)
	tbl.AddFieldColumn("paused", types.BOOLEAN)
	tbl.AddFieldColumn("tick", types.UINT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		err := tbl.AddRow(
			r.Session,
			r.RobotID,
			r.Name,
			string(r.Status),
			r.Battery,
			r.Speed,
			r.Temperature,
			r.X,
			r.Z,
			r.Heading,
			r.Focused,
			r.Paused,
			r.Tick,
			r.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("telemetry row %s: %w", r.RobotID, err)
		}
	}
	return w.write(tbl)
}

// WriteCommand inserts a single command log entry.
func (w *GreptimeDBWriter) WriteCommand(row telemetry.CommandRow) error {
	return w.WriteCommands([]telemetry.CommandRow{row})
}

// WriteCommands inserts multiple command log entries.
func (w *GreptimeDBWriter) WriteCommands(rows []telemetry.CommandRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.commandTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session", types.STRING)
	tbl.AddFieldColumn("seq", types.INT64)
	tbl.AddFieldColumn("kind", types.STRING)
	tbl.AddFieldColumn("intent", types.STRING)
	tbl.AddFieldColumn("text", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.Session, int64(r.Seq), r.Kind, r.Intent, r.Text, r.Timestamp); err != nil {
			return fmt.Errorf("command row %d: %w", r.Seq, err)
		}
	}
	return w.write(tbl)
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	return nil
}

// Close releases the client connection if it supports closing.
func (w *GreptimeDBWriter) Close() error {
	if c, ok := w.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
