package command

import (
	"strings"

	"fleetview-sim/internal/fleet"
)

// IntentUnknown names the fallback outcome.
const IntentUnknown = "unknown"

// Result describes what a single command did.
type Result struct {
	Intent  string
	Entries []string
}

// Interpreter applies commands to a fleet state using an ordered intent table.
type Interpreter struct {
	intents []Intent
	alerts  Alerts
}

// NewInterpreter creates an interpreter with the default intent table.
func NewInterpreter(alerts Alerts) *Interpreter {
	return &Interpreter{intents: Intents(), alerts: alerts.withDefaults()}
}

// Execute echoes raw into the log, applies the first matching intent and
// appends its response. The caller is responsible for serializing access to s.
func (in *Interpreter) Execute(s *fleet.State, raw string) Result {
	cmd := strings.ToLower(strings.TrimSpace(raw))
	res := Result{Intent: IntentUnknown, Entries: []string{IssuedEntry(raw)}}
	response := UnknownMessage(raw)
	for _, it := range in.intents {
		if it.Match(cmd) {
			res.Intent = it.Name
			response = it.Apply(s, cmd, in.alerts)
			break
		}
	}
	res.Entries = append(res.Entries, response)
	s.Append(res.Entries...)
	return res
}

// Resolve returns the name of the intent raw would select without applying it.
func (in *Interpreter) Resolve(raw string) string {
	cmd := strings.ToLower(strings.TrimSpace(raw))
	for _, it := range in.intents {
		if it.Match(cmd) {
			return it.Name
		}
	}
	return IntentUnknown
}
