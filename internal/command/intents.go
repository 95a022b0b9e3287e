// Package command interprets free-text operator commands into fleet state transitions.
package command

import (
	"fmt"
	"strings"

	"fleetview-sim/internal/fleet"
)

// Log texts for the fixed responses.
const (
	MsgFleetOpened   = "Fleet status panel opened."
	MsgFleetClosed   = "Fleet status panel closed."
	MsgPaused        = "Fleet paused."
	MsgResumed       = "Fleet resumed."
	MsgPanelsHidden  = "AR overlays hidden."
	MsgPanelsShown   = "AR overlays shown."
	MsgDiagnostics   = "Diagnostics mode enabled."
	MsgRobotNotFound = "Robot not found. Try: zoom AMR-001"
	MsgFocusCleared  = "Focus cleared."
	MsgHelp          = "Available commands: show fleet status, pause fleet, resume fleet, zoom [robot], show/hide panels, show diagnostics, alert status, help"
)

// Intent is one entry of the ordered intent table.
type Intent struct {
	Name string
	// Match reports whether the normalized command selects this intent.
	Match func(cmd string) bool
	// Apply mutates the state and returns the response log entry.
	Apply func(s *fleet.State, cmd string, a Alerts) string
}

func containsAny(subs ...string) func(string) bool {
	return func(cmd string) bool {
		for _, sub := range subs {
			if strings.Contains(cmd, sub) {
				return true
			}
		}
		return false
	}
}

// Intents returns the intent table in evaluation order. The first match wins,
// so "hide fleet status" resolves to show-fleet because "fleet status" is tested
// first, "unpause" resolves to pause, and "clear focus" is tested before the
// "focus" substring.
func Intents() []Intent {
	return []Intent{
		{
			Name:  "show-fleet",
			Match: containsAny("show fleet", "fleet status"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.ShowFleetPanel = true
				return MsgFleetOpened
			},
		},
		{
			Name:  "hide-fleet",
			Match: containsAny("hide fleet"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.ShowFleetPanel = false
				return MsgFleetClosed
			},
		},
		{
			Name:  "pause",
			Match: containsAny("pause"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.Paused = true
				return MsgPaused
			},
		},
		{
			Name:  "resume",
			Match: containsAny("resume", "unpause"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.Paused = false
				return MsgResumed
			},
		},
		{
			Name:  "hide-panels",
			Match: containsAny("hide panel"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.ShowPanels = false
				return MsgPanelsHidden
			},
		},
		{
			Name:  "show-panels",
			Match: containsAny("show panel"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.ShowPanels = true
				return MsgPanelsShown
			},
		},
		{
			Name:  "diagnostics",
			Match: containsAny("diagnostic"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.ShowDiagnostics = !s.ShowDiagnostics
				// Same sentence whichever way the flag flipped.
				return MsgDiagnostics
			},
		},
		{
			Name:  "clear-focus",
			Match: containsAny("clear focus", "unfocus"),
			Apply: func(s *fleet.State, _ string, _ Alerts) string {
				s.ClearFocus()
				return MsgFocusCleared
			},
		},
		{
			Name:  "focus",
			Match: containsAny("zoom", "focus"),
			Apply: applyFocus,
		},
		{
			Name:  "alerts",
			Match: containsAny("alert", "warning"),
			Apply: func(s *fleet.State, _ string, a Alerts) string {
				return a.Scan(s.Robots)
			},
		},
		{
			Name:  "help",
			Match: containsAny("help"),
			Apply: func(*fleet.State, string, Alerts) string {
				return MsgHelp
			},
		},
	}
}

func applyFocus(s *fleet.State, cmd string, _ Alerts) string {
	for _, r := range s.Robots {
		if mentions(cmd, r.ID) || mentions(cmd, r.Name) {
			s.Focus(r.ID)
			return fmt.Sprintf("Focusing on %s (%s).", r.Name, r.ID)
		}
	}
	s.ClearFocus()
	return MsgRobotNotFound
}

// mentions reports whether cmd contains the non-empty word, ignoring case.
func mentions(cmd, word string) bool {
	return word != "" && strings.Contains(cmd, strings.ToLower(word))
}

// UnknownMessage is the response for input no intent recognizes.
func UnknownMessage(raw string) string {
	return fmt.Sprintf("Unknown command: \"%s\". Say \"help\" for options.", raw)
}

// IssuedEntry is the log echo of the raw command.
func IssuedEntry(raw string) string {
	return "> " + raw
}
