package sim

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/config"
	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/telemetry"
)

// MockWriter collects telemetry and command rows for validation
type MockWriter struct {
	mu       sync.Mutex
	Rows     []telemetry.TelemetryRow
	Commands []telemetry.CommandRow
}

func (w *MockWriter) Write(row telemetry.TelemetryRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Rows = append(w.Rows, row)
	return nil
}

func (w *MockWriter) WriteCommand(row telemetry.CommandRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Commands = append(w.Commands, row)
	return nil
}

func (w *MockWriter) rowCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.Rows)
}

func newTestSim(t *testing.T, w *MockWriter) *Simulator {
	t.Helper()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSimulator(config.Default(), w, w,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return fixed }),
		WithSession("test-session"),
	)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

func TestSimulator_TickGeneratesTelemetry(t *testing.T) {
	w := &MockWriter{}
	s := newTestSim(t, w)
	s.Tick()

	if len(w.Rows) != 4 {
		t.Fatalf("Expected telemetry for 4 robots, got %d", len(w.Rows))
	}
	for _, row := range w.Rows {
		if row.RobotID == "" || row.Session != "test-session" || row.Tick != 1 {
			t.Errorf("Telemetry row has missing fields: %+v", row)
		}
	}
	snap := s.Snapshot()
	if snap.Ticks != 1 {
		t.Fatalf("ticks = %d", snap.Ticks)
	}
	for _, r := range snap.Robots {
		if r.Battery < fleet.MinBattery || r.Battery > fleet.MaxBattery {
			t.Fatalf("%s battery out of range: %v", r.ID, r.Battery)
		}
	}
}

func TestSimulator_SessionGenerated(t *testing.T) {
	s, err := NewSimulator(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if len(s.Session()) != 36 {
		t.Fatalf("expected uuid session, got %q", s.Session())
	}
	if s.Snapshot().Session != s.Session() {
		t.Fatalf("snapshot session mismatch")
	}
}

func TestSimulator_RejectsBadSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Fleet = []fleet.Robot{{ID: "A"}, {ID: "A"}}
	if _, err := NewSimulator(cfg, nil, nil); !errors.Is(err, fleet.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestSimulator_CommandLogAndRows(t *testing.T) {
	w := &MockWriter{}
	s := newTestSim(t, w)
	res := s.Command("zoom AMR-001")
	if res.Intent != "focus" {
		t.Fatalf("intent = %s", res.Intent)
	}
	snap := s.Snapshot()
	want := []string{"> zoom AMR-001", "Focusing on Atlas (AMR-001)."}
	if len(snap.CommandLog) != 2 || snap.CommandLog[0] != want[0] || snap.CommandLog[1] != want[1] {
		t.Fatalf("log = %q", snap.CommandLog)
	}
	if snap.FocusedRobot == nil || *snap.FocusedRobot != "AMR-001" {
		t.Fatalf("focus not set")
	}
	if len(w.Commands) != 2 {
		t.Fatalf("command rows = %d", len(w.Commands))
	}
	if w.Commands[0].Kind != telemetry.CommandIssued || w.Commands[1].Kind != telemetry.CommandResponse {
		t.Fatalf("kinds = %s/%s", w.Commands[0].Kind, w.Commands[1].Kind)
	}
	if w.Commands[1].Seq != 1 || w.Commands[1].Intent != "focus" {
		t.Fatalf("unexpected row: %+v", w.Commands[1])
	}

	s.Command("pause")
	if got := s.LogSince(2); len(got) != 2 || got[1] != command.MsgPaused {
		t.Fatalf("LogSince(2) = %q", got)
	}
	if got := s.LogSince(10); got != nil {
		t.Fatalf("LogSince past end = %q", got)
	}
	if w.Commands[2].Seq != 2 {
		t.Fatalf("seq should continue from log length, got %d", w.Commands[2].Seq)
	}
}

func TestSimulator_PauseResumeAddsTwoResponses(t *testing.T) {
	s := newTestSim(t, &MockWriter{})
	s.Command("pause")
	s.Command("resume")
	snap := s.Snapshot()
	if snap.Paused {
		t.Fatalf("fleet should be resumed")
	}
	if len(snap.CommandLog) != 4 {
		t.Fatalf("log = %q", snap.CommandLog)
	}
}

func TestSimulator_ToggleFleetPanelDoesNotLog(t *testing.T) {
	w := &MockWriter{}
	s := newTestSim(t, w)
	s.ToggleFleetPanel()
	snap := s.Snapshot()
	if !snap.ShowFleetPanel || len(snap.CommandLog) != 0 || len(w.Commands) != 0 {
		t.Fatalf("toggle: panel=%v log=%q rows=%d", snap.ShowFleetPanel, snap.CommandLog, len(w.Commands))
	}
}

func TestSimulator_FocusIssuesZoomCommand(t *testing.T) {
	w := &MockWriter{}
	s := newTestSim(t, w)
	ref := newTestSim(t, &MockWriter{})

	res := s.Focus("AMR-001")
	want := ref.Command("zoom AMR-001")
	if res.Intent != want.Intent {
		t.Fatalf("intent %q, want %q", res.Intent, want.Intent)
	}
	snap := s.Snapshot()
	if len(snap.CommandLog) != 2 || snap.CommandLog[0] != "> zoom AMR-001" || snap.CommandLog[1] != want.Entries[1] {
		t.Fatalf("unexpected log %q", snap.CommandLog)
	}
	if snap.FocusedRobot == nil || *snap.FocusedRobot != "AMR-001" {
		t.Fatalf("expected focus on AMR-001, got %v", snap.FocusedRobot)
	}
	if len(w.Commands) != 2 {
		t.Fatalf("expected 2 command rows, got %d", len(w.Commands))
	}

	s.Focus("NOPE")
	snap = s.Snapshot()
	if snap.FocusedRobot != nil {
		t.Fatalf("unknown focus should clear, got %v", *snap.FocusedRobot)
	}
	if got := snap.CommandLog[len(snap.CommandLog)-1]; got != command.MsgRobotNotFound {
		t.Fatalf("expected not-found response, got %q", got)
	}

	s.Focus("AMR-002")
	s.ClearFocus()
	snap = s.Snapshot()
	if snap.FocusedRobot != nil {
		t.Fatalf("expected focus cleared, got %v", *snap.FocusedRobot)
	}
	tail := snap.CommandLog[len(snap.CommandLog)-2:]
	if tail[0] != "> clear focus" || tail[1] != command.MsgFocusCleared {
		t.Fatalf("unexpected clear entries %q", tail)
	}
	if len(snap.CommandLog) != 8 {
		t.Fatalf("expected 8 log entries, got %d", len(snap.CommandLog))
	}
}

func TestSimulator_FrameAnimatesAndFollowsFocus(t *testing.T) {
	s := newTestSim(t, &MockWriter{})
	before := s.Snapshot()
	s.Frame(100 * time.Millisecond)
	after := s.Snapshot()
	if after.Robots[0].Position == before.Robots[0].Position {
		t.Fatalf("active robot did not move")
	}
	if after.Robots[2].Position != before.Robots[2].Position {
		t.Fatalf("charging robot moved")
	}
	if after.Frames != 1 {
		t.Fatalf("frames = %d", after.Frames)
	}

	s.Focus("AMR-004")
	home := after.Viewpoint.Position
	var pose fleet.Pose
	for i := 0; i < 10; i++ {
		pose = s.Frame(time.Millisecond)
	}
	target := s.Snapshot().Robots[3].Position
	if pose.LookAt != target {
		t.Fatalf("look at = %+v, want %+v", pose.LookAt, target)
	}
	if pose.Position == home {
		t.Fatalf("camera did not move towards focus")
	}
}

func TestSimulator_PausedFreezesPositions(t *testing.T) {
	s := newTestSim(t, &MockWriter{})
	s.Command("pause")
	before := s.Snapshot()
	s.Frame(200 * time.Millisecond)
	after := s.Snapshot()
	for i := range before.Robots {
		if before.Robots[i].Position != after.Robots[i].Position {
			t.Fatalf("%s moved while paused", before.Robots[i].ID)
		}
	}
}

func TestSimulator_SnapshotIsolated(t *testing.T) {
	s := newTestSim(t, &MockWriter{})
	snap := s.Snapshot()
	snap.Robots[0].Path[0].X = 999
	snap.Robots[0].Battery = 0
	again := s.Snapshot()
	if again.Robots[0].Path[0].X == 999 || again.Robots[0].Battery == 0 {
		t.Fatalf("snapshot aliases engine state")
	}
}

func TestSimulator_Subscribe(t *testing.T) {
	s := newTestSim(t, &MockWriter{})
	var causes []Cause
	cancel := s.Subscribe(func(u Update) { causes = append(causes, u.Cause) })
	s.Tick()
	s.Command("help")
	s.ToggleFleetPanel()
	s.Frame(time.Millisecond)
	cancel()
	cancel()
	s.Tick()
	want := []Cause{CauseTick, CauseCommand, CauseControl, CauseFrame}
	if len(causes) != len(want) {
		t.Fatalf("causes = %v", causes)
	}
	for i := range want {
		if causes[i] != want[i] {
			t.Fatalf("causes = %v, want %v", causes, want)
		}
	}
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	w := &MockWriter{}
	cfg := config.Default()
	cfg.Engine.TelemetryInterval = 5 * time.Millisecond
	cfg.Engine.FrameInterval = 2 * time.Millisecond
	s, err := NewSimulator(cfg, w, w)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for w.rowCount() < 8 {
		select {
		case <-deadline:
			t.Fatalf("no telemetry produced")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	n := w.rowCount()
	time.Sleep(30 * time.Millisecond)
	if w.rowCount() != n {
		t.Fatalf("telemetry kept flowing after Run returned")
	}
	if s.Snapshot().Frames == 0 {
		t.Fatalf("frame clock never fired")
	}
}
