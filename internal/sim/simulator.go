// Simulator owning the fleet state and driving telemetry and animation
package sim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/config"
	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/motion"
	"fleetview-sim/internal/telemetry"
	"fleetview-sim/internal/viewpoint"
)

// Cause names the mutation that produced an Update.
type Cause string

// Update causes.
const (
	CauseTick    Cause = "tick"
	CauseFrame   Cause = "frame"
	CauseCommand Cause = "command"
	CauseControl Cause = "control"
)

// Update is delivered to listeners after every completed mutation.
type Update struct {
	Cause Cause
	State fleet.State
}

// Listener receives snapshots. It must not block for long.
type Listener func(Update)

// Option customizes a Simulator.
type Option func(*Simulator)

// WithRand injects the telemetry random source.
func WithRand(r telemetry.Rand) Option {
	return func(s *Simulator) { s.rand = r }
}

// WithClock overrides the wall clock used to stamp rows.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithLogger sets the logger used for writer failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithSession fixes the session id instead of generating one.
func WithSession(id string) Option {
	return func(s *Simulator) { s.session = id }
}

// Simulator is the engine: the single writer of fleet state.
type Simulator struct {
	mu       sync.Mutex
	state    *fleet.State
	mutator  *telemetry.Mutator
	interp   *command.Interpreter
	animator *motion.Animator
	camera   *viewpoint.Controller

	writer    TelemetryWriter
	cmdWriter CommandWriter
	outMu     sync.Mutex

	lmu          sync.Mutex
	listeners    map[int]Listener
	nextListener int

	tickInterval  time.Duration
	frameInterval time.Duration
	session       string
	rand          telemetry.Rand
	now           func() time.Time
	log           *slog.Logger
}

// NewSimulator seeds the engine from cfg. writer and cmdWriter may be nil.
func NewSimulator(cfg *config.Config, writer TelemetryWriter, cmdWriter CommandWriter, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	state, err := fleet.NewState(cfg.Fleet)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		state:         state,
		writer:        writer,
		cmdWriter:     cmdWriter,
		listeners:     make(map[int]Listener),
		tickInterval:  cfg.Engine.TelemetryInterval,
		frameInterval: cfg.Engine.FrameInterval,
		now:           time.Now,
		log:           slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.tickInterval <= 0 {
		s.tickInterval = config.DefaultTelemetryInterval
	}
	if s.frameInterval <= 0 {
		s.frameInterval = config.DefaultFrameInterval
	}
	if s.session == "" {
		s.session = uuid.New().String()
	}
	state.Session = s.session

	s.mutator = telemetry.NewMutator(s.rand, cfg.Engine.MinSpeed)
	s.interp = command.NewInterpreter(command.Alerts{
		LowBattery:      cfg.Alerts.LowBattery,
		HighTemperature: cfg.Alerts.HighTemperature,
	})
	s.animator = motion.NewAnimator(cfg.Engine.PathRate)
	s.camera = viewpoint.New(viewpoint.Settings{
		Home:         cfg.Viewpoint.Home,
		LookAt:       cfg.Viewpoint.LookAt,
		FocusOffset:  cfg.Viewpoint.FocusOffset,
		PositionGain: cfg.Viewpoint.PositionGain,
		RotationGain: cfg.Viewpoint.RotationGain,
		PointerPitch: cfg.Viewpoint.PointerPitch,
		PointerYaw:   cfg.Viewpoint.PointerYaw,
	})
	state.Viewpoint = fleet.Pose{Position: s.camera.Position(), LookAt: cfg.Viewpoint.LookAt}
	return s, nil
}

// Session returns the id stamped on every row and snapshot.
func (s *Simulator) Session() string { return s.session }

// TickInterval returns the telemetry cadence.
func (s *Simulator) TickInterval() time.Duration { return s.tickInterval }

// Snapshot returns a deep copy of the current state.
func (s *Simulator) Snapshot() fleet.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Summary returns the fleet headline figures.
func (s *Simulator) Summary() fleet.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Summary()
}

// LogSince returns command log entries starting at index n.
func (s *Simulator) LogSince(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n >= len(s.state.CommandLog) {
		return nil
	}
	return append([]string(nil), s.state.CommandLog[n:]...)
}

// Subscribe registers fn for every update and returns a cancel func.
func (s *Simulator) Subscribe(fn Listener) (cancel func()) {
	s.lmu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.lmu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

func (s *Simulator) hasListeners() bool {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	return len(s.listeners) > 0
}

func (s *Simulator) notify(cause Cause, snap fleet.State) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(Update{Cause: cause, State: snap})
	}
}

// Command feeds operator text to the interpreter. It never fails; the
// outcome is visible in the command log and the next snapshot.
func (s *Simulator) Command(raw string) command.Result {
	s.mu.Lock()
	start := len(s.state.CommandLog)
	res := s.interp.Execute(s.state, raw)
	snap := s.state.Snapshot()
	s.mu.Unlock()

	s.log.Debug("command", "raw", raw, "intent", res.Intent)
	ts := s.now().UTC()
	rows := make([]telemetry.CommandRow, 0, len(res.Entries))
	for i, e := range res.Entries {
		kind := telemetry.CommandResponse
		if i == 0 {
			kind = telemetry.CommandIssued
		}
		rows = append(rows, telemetry.CommandRow{
			Session:   s.session,
			Seq:       start + i,
			Kind:      kind,
			Intent:    res.Intent,
			Text:      e,
			Timestamp: ts,
		})
	}
	s.outMu.Lock()
	if err := writeCommands(s.cmdWriter, rows); err != nil {
		s.log.Error("command write failed", "err", err)
	}
	s.outMu.Unlock()
	s.notify(CauseCommand, snap)
	return res
}

// Focus is the same as issuing "zoom <id>": it is logged, written to the
// command sinks, and an unknown id clears focus with a not-found response.
func (s *Simulator) Focus(id string) command.Result {
	return s.Command("zoom " + id)
}

// ClearFocus issues "clear focus".
func (s *Simulator) ClearFocus() command.Result {
	return s.Command("clear focus")
}

// ToggleFleetPanel flips the fleet panel without logging.
func (s *Simulator) ToggleFleetPanel() {
	s.control(func(st *fleet.State) { st.ShowFleetPanel = !st.ShowFleetPanel })
}

// SetPointer records the pointer in normalized device coordinates.
func (s *Simulator) SetPointer(x, y float64) {
	s.mu.Lock()
	s.camera.SetPointer(x, y)
	s.mu.Unlock()
}

func (s *Simulator) control(fn func(*fleet.State)) {
	s.mu.Lock()
	fn(s.state)
	snap := s.state.Snapshot()
	s.mu.Unlock()
	s.notify(CauseControl, snap)
}
