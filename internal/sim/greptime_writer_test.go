package sim

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
	err   error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterTelemetry(t *testing.T) {
	rows := []telemetry.TelemetryRow{{
		Session:   "s1",
		RobotID:   "AMR-001",
		Name:      "Atlas",
		Status:    fleet.StatusActive,
		Battery:   87,
		Focused:   true,
		Tick:      3,
		Timestamp: time.Unix(0, 0).UTC(),
	}}

	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, telemetryTable: "robot_telemetry"}
	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	schema := m.table.GetRows().Schema
	if len(schema) != 14 {
		t.Fatalf("unexpected schema length: %d", len(schema))
	}
	if schema[0].SemanticType != gpb.SemanticType_TAG || schema[13].SemanticType != gpb.SemanticType_TIMESTAMP {
		t.Fatalf("unexpected semantic types: %v / %v", schema[0].SemanticType, schema[13].SemanticType)
	}
	values := m.table.GetRows().Rows[0].Values
	if got := values[1].GetStringValue(); got != "AMR-001" {
		t.Fatalf("robot_id = %s, want AMR-001", got)
	}
	if got := values[3].GetStringValue(); got != "active" {
		t.Fatalf("status = %s, want active", got)
	}
	if got := values[4].GetF64Value(); got != 87 {
		t.Fatalf("battery = %v, want 87", got)
	}
	if !values[10].GetBoolValue() {
		t.Fatalf("focused should be true")
	}
}

func TestGreptimeWriterCommands(t *testing.T) {
	rows := []telemetry.CommandRow{
		{Session: "s1", Seq: 0, Kind: telemetry.CommandIssued, Intent: "pause", Text: "> pause"},
		{Session: "s1", Seq: 1, Kind: telemetry.CommandResponse, Intent: "pause", Text: "Fleet paused."},
	}
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, commandTable: "fleet_command_log"}
	if err := w.WriteCommands(rows); err != nil {
		t.Fatalf("WriteCommands: %v", err)
	}
	got := m.table.GetRows().Rows
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if txt := got[1].Values[4].GetStringValue(); txt != "Fleet paused." {
		t.Fatalf("text = %q", txt)
	}
	if seq := got[1].Values[1].GetI64Value(); seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
}

func TestGreptimeWriterEmptyBatchSkipsWrite(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, telemetryTable: "robot_telemetry"}
	if err := w.WriteBatch(nil); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table != nil {
		t.Fatalf("empty batch should not reach the client")
	}
}

func TestGreptimeWriterWrapsErrors(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, telemetryTable: "robot_telemetry"}
	err := w.Write(telemetry.TelemetryRow{RobotID: "r", Timestamp: time.Now()})
	if err == nil || !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestSplitEndpoint(t *testing.T) {
	host, port, err := splitEndpoint("greptime:4002")
	if err != nil || host != "greptime" || port != 4002 {
		t.Fatalf("got %s %d %v", host, port, err)
	}
	host, port, err = splitEndpoint("localhost")
	if err != nil || host != "localhost" || port != defaultGreptimePort {
		t.Fatalf("got %s %d %v", host, port, err)
	}
	if _, _, err := splitEndpoint("h:abc"); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestGreptimeDBWriter_WithTables(t *testing.T) {
	w := (&GreptimeDBWriter{
		telemetryTable: telemetry.TelemetryTableName,
		commandTable:   telemetry.CommandTableName,
	}).WithTables("custom_telemetry", "")
	if w.telemetryTable != "custom_telemetry" {
		t.Errorf("telemetry table = %q", w.telemetryTable)
	}
	if w.commandTable != telemetry.CommandTableName {
		t.Errorf("command table = %q", w.commandTable)
	}
}
