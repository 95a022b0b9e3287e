package fleet

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyID is returned when a seed robot has no identifier.
	ErrEmptyID = errors.New("robot id is empty")
	// ErrDuplicateID is returned when two seed robots share an identifier.
	ErrDuplicateID = errors.New("duplicate robot id")
)

// State is the single source of truth for the fleet and the operator-facing flags.
// It is owned by the simulator; every other reader works on a Snapshot.
type State struct {
	Session         string   `json:"session"`
	Robots          []Robot  `json:"robots"`
	Paused          bool     `json:"paused"`
	ShowPanels      bool     `json:"show_panels"`
	ShowFleetPanel  bool     `json:"show_fleet_panel"`
	ShowDiagnostics bool     `json:"show_diagnostics"`
	FocusedRobot    *string  `json:"focused_robot"`
	CommandLog      []string `json:"command_log"`
	Viewpoint       Pose     `json:"viewpoint"`
	Ticks           uint64   `json:"ticks"`
	Frames          uint64   `json:"frames"`
}

// NewState seeds a state from robots. The seed is normalized and copied.
func NewState(seed []Robot) (*State, error) {
	robots, err := NormalizeSeed(seed)
	if err != nil {
		return nil, err
	}
	return &State{Robots: robots, ShowPanels: true}, nil
}

// NormalizeSeed validates seed robots and returns a normalized copy.
// An empty path becomes a single-point path at the robot's position and
// battery/temperature are clamped into their bounds. A missing name falls back to the id.
func NormalizeSeed(seed []Robot) ([]Robot, error) {
	seen := make(map[string]struct{}, len(seed))
	out := make([]Robot, 0, len(seed))
	for i, r := range seed {
		if r.ID == "" {
			return nil, fmt.Errorf("seed robot %d: %w", i, ErrEmptyID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("seed robot %q: %w", r.ID, ErrDuplicateID)
		}
		seen[r.ID] = struct{}{}
		c := r.clone()
		if len(c.Path) == 0 {
			c.Path = []Vec3{c.Position}
		}
		if c.Status == "" {
			c.Status = StatusIdle
		}
		if c.Name == "" {
			c.Name = c.ID
		}
		c.Battery = Clamp(c.Battery, MinBattery, MaxBattery)
		c.Temperature = Clamp(c.Temperature, MinTemperature, MaxTemperature)
		out = append(out, c)
	}
	return out, nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Robot returns the robot with the given id.
func (s *State) Robot(id string) (*Robot, bool) {
	for i := range s.Robots {
		if s.Robots[i].ID == id {
			return &s.Robots[i], true
		}
	}
	return nil, false
}

// Focused returns the focused robot, if the focus id is still valid.
func (s *State) Focused() (*Robot, bool) {
	if s.FocusedRobot == nil {
		return nil, false
	}
	return s.Robot(*s.FocusedRobot)
}

// Focus sets the focused robot id. An unknown id clears focus.
func (s *State) Focus(id string) {
	if _, ok := s.Robot(id); !ok {
		s.FocusedRobot = nil
		return
	}
	v := id
	s.FocusedRobot = &v
}

// ClearFocus removes the focus target.
func (s *State) ClearFocus() { s.FocusedRobot = nil }

// Append adds entries to the command log.
func (s *State) Append(entries ...string) {
	s.CommandLog = append(s.CommandLog, entries...)
}

// Snapshot returns a deep copy safe to hand to view collaborators.
func (s *State) Snapshot() State {
	c := *s
	c.Robots = make([]Robot, len(s.Robots))
	for i, r := range s.Robots {
		c.Robots[i] = r.clone()
	}
	c.CommandLog = append([]string(nil), s.CommandLog...)
	if s.FocusedRobot != nil {
		id := *s.FocusedRobot
		c.FocusedRobot = &id
	}
	return c
}

// Summary aggregates the headline fleet figures.
type Summary struct {
	Active     int     `json:"active"`
	Total      int     `json:"total"`
	AvgBattery float64 `json:"avg_battery"`
	Charging   int     `json:"charging"`
	Errors     int     `json:"errors"`
}

// Summary computes counts and average battery for the fleet.
func (s *State) Summary() Summary {
	sum := Summary{Total: len(s.Robots)}
	total := 0.0
	for _, r := range s.Robots {
		total += r.Battery
		switch r.Status {
		case StatusActive:
			sum.Active++
		case StatusCharging:
			sum.Charging++
		case StatusError:
			sum.Errors++
		}
	}
	if sum.Total > 0 {
		sum.AvgBattery = total / float64(sum.Total)
	}
	return sum
}
