// Package scenario plays scripted operator command sequences against the engine.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCommand is returned when a script step has no command text.
var ErrEmptyCommand = errors.New("step has no command")

// Script is a named, timed sequence of operator commands.
type Script struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step issues Command once At has elapsed since the script started.
type Step struct {
	At      time.Duration `yaml:"at"`
	Command string        `yaml:"command"`
}

// Load reads a YAML script definition from disk.
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML script. Steps are ordered by At.
func Parse(b []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step and sorts them by offset, keeping file order for ties.
func (s *Script) Validate() error {
	for i, st := range s.Steps {
		if strings.TrimSpace(st.Command) == "" {
			return fmt.Errorf("scenario %q step %d: %w", s.Name, i, ErrEmptyCommand)
		}
		if st.At < 0 {
			return fmt.Errorf("scenario %q step %d: negative offset %s", s.Name, i, st.At)
		}
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
	return nil
}

// Duration returns the offset of the last step.
func (s *Script) Duration() time.Duration {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].At
}

// Player tracks which steps of a script have been issued.
type Player struct {
	script *Script
	next   int
}

// NewPlayer creates a player positioned at the first step.
func NewPlayer(s *Script) *Player {
	return &Player{script: s}
}

// Due returns the commands whose offset is <= elapsed and marks them issued.
func (p *Player) Due(elapsed time.Duration) []string {
	var out []string
	for p.next < len(p.script.Steps) && p.script.Steps[p.next].At <= elapsed {
		out = append(out, p.script.Steps[p.next].Command)
		p.next++
	}
	return out
}

// Done reports whether every step was issued.
func (p *Player) Done() bool { return p.next >= len(p.script.Steps) }

// Run issues each step through issue at its offset from now. It returns
// nil once the script is exhausted, or the context error if cancelled first.
func (p *Player) Run(ctx context.Context, issue func(string)) error {
	start := time.Now()
	for !p.Done() {
		wait := p.script.Steps[p.next].At - time.Since(start)
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		for _, cmd := range p.Due(time.Since(start)) {
			issue(cmd)
		}
	}
	return nil
}
