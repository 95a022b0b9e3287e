package sim

import (
	"context"
	"time"

	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/logging"
	"fleetview-sim/internal/telemetry"
)

// maxFrameStep bounds a single animation step after a stalled frame clock.
const maxFrameStep = 250 * time.Millisecond

// Run drives the telemetry and frame clocks until the context is done.
// Both tickers are stopped before Run returns.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "session", s.session, "tick_interval", s.tickInterval, "frame_interval", s.frameInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	frames := time.NewTicker(s.frameInterval)
	defer frames.Stop()

	last := time.Now()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case t := <-frames.C:
			s.Frame(t.Sub(last))
			last = t
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// Tick applies one telemetry pass over every robot and writes the rows.
func (s *Simulator) Tick() {
	s.mu.Lock()
	s.mutator.Apply(s.state.Robots)
	s.state.Ticks++
	snap := s.state.Snapshot()
	s.mu.Unlock()

	batch := telemetry.Rows(snap, s.now().UTC())
	s.outMu.Lock()
	if err := writeTelemetry(s.writer, batch); err != nil {
		s.log.Error("batch write failed", "err", err)
	}
	s.outMu.Unlock()
	s.notify(CauseTick, snap)
}

// Frame advances path animation and the viewpoint by dt.
func (s *Simulator) Frame(dt time.Duration) fleet.Pose {
	if dt > maxFrameStep {
		dt = maxFrameStep
	}
	s.mu.Lock()
	s.animator.Step(s.state, dt)
	var focus *fleet.Vec3
	if r, ok := s.state.Focused(); ok {
		p := r.Position
		focus = &p
	}
	pose := s.camera.Step(focus)
	s.state.Viewpoint = pose
	s.state.Frames++
	var snap fleet.State
	notify := s.hasListeners()
	if notify {
		snap = s.state.Snapshot()
	}
	s.mu.Unlock()

	if notify {
		s.notify(CauseFrame, snap)
	}
	return pose
}
