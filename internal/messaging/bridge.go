package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/sim"
)

// Engine is the part of the simulator the bridge drives.
type Engine interface {
	Command(raw string) command.Result
	Subscribe(fn sim.Listener) (cancel func())
}

// StateMessage is published on the state topic once per telemetry tick.
// State carries no command log; Log holds only the entries appended since the
// previous message, starting at index LogOffset.
type StateMessage struct {
	Session   string        `json:"session"`
	Tick      uint64        `json:"tick"`
	Summary   fleet.Summary `json:"summary"`
	State     fleet.State   `json:"state"`
	LogOffset int           `json:"log_offset"`
	Log       []string      `json:"log"`
}

// commandMessage is the optional JSON form of an inbound command.
type commandMessage struct {
	Command string `json:"command"`
}

// Bridge feeds broker commands into the engine and publishes snapshots.
type Bridge struct {
	transport    Transport
	engine       Engine
	commandTopic string
	stateTopic   string
	log          *slog.Logger
	pending      chan fleet.State
	logSent      int
}

// NewBridge wires transport to engine using the topics in cfg.
func NewBridge(t Transport, e Engine, cfg Settings, log *slog.Logger) *Bridge {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		transport:    t,
		engine:       e,
		commandTopic: cfg.CommandTopic,
		stateTopic:   cfg.StateTopic,
		log:          log,
		pending:      make(chan fleet.State, 1),
	}
}

// ParseCommand extracts command text from a payload: either raw text or
// {"command": "..."}.
func ParseCommand(payload []byte) string {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var msg commandMessage
		if err := json.Unmarshal([]byte(text), &msg); err == nil {
			return strings.TrimSpace(msg.Command)
		}
	}
	return text
}

// Run subscribes to the command topic and publishes tick snapshots until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	err := b.transport.Subscribe(b.commandTopic, func(payload []byte) {
		raw := ParseCommand(payload)
		if raw == "" {
			return
		}
		res := b.engine.Command(raw)
		b.log.Debug("broker command", "topic", b.commandTopic, "raw", raw, "intent", res.Intent)
	})
	if err != nil {
		return err
	}
	cancel := b.engine.Subscribe(b.offer)
	defer cancel()

	b.log.Info("messaging bridge started", "commands", b.commandTopic, "state", b.stateTopic)
	for {
		select {
		case <-ctx.Done():
			b.log.Info("messaging bridge stopped")
			return nil
		case st := <-b.pending:
			b.publish(st)
		}
	}
}

// offer keeps only the newest tick snapshot so a slow broker never stalls the engine.
func (b *Bridge) offer(u sim.Update) {
	if u.Cause != sim.CauseTick {
		return
	}
	for {
		select {
		case b.pending <- u.State:
			return
		default:
		}
		select {
		case <-b.pending:
		default:
		}
	}
}

func (b *Bridge) publish(st fleet.State) {
	msg := b.message(st)
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("encode state", "err", err)
		return
	}
	if err := b.transport.Publish(b.stateTopic, data); err != nil {
		b.log.Error("publish state failed", "topic", b.stateTopic, "err", err)
	}
}

// message builds the next StateMessage. Only the publish loop calls it.
func (b *Bridge) message(st fleet.State) StateMessage {
	from := min(b.logSent, len(st.CommandLog))
	msg := StateMessage{
		Session:   st.Session,
		Tick:      st.Ticks,
		Summary:   st.Summary(),
		LogOffset: from,
		Log:       append([]string{}, st.CommandLog[from:]...),
	}
	b.logSent = len(st.CommandLog)
	st.CommandLog = nil
	msg.State = st
	return msg
}
