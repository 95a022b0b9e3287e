package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zyedidia/generic/mapset"

	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/sim"
)

// Event is the envelope streamed to SSE clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type eventClient struct {
	events chan Event
}

// EventHub fans engine updates out to connected SSE clients.
type EventHub struct {
	mu        sync.RWMutex
	clients   mapset.Set[*eventClient]
	broadcast chan Event
	stop      chan struct{}
	stopOnce  sync.Once
	keepalive time.Duration
}

// NewEventHub returns a hub; call Start before broadcasting.
func NewEventHub() *EventHub {
	return &EventHub{
		clients:   mapset.New[*eventClient](),
		broadcast: make(chan Event, 64),
		stop:      make(chan struct{}),
		keepalive: 30 * time.Second,
	}
}

// Start begins the fan-out loop.
func (h *EventHub) Start() { go h.run() }

// Stop ends the fan-out loop and releases every stream.
func (h *EventHub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Clients reports the number of open streams.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients.Size()
}

// Broadcast queues evt for every client, dropping it when the hub is backed up.
func (h *EventHub) Broadcast(evt Event) {
	select {
	case h.broadcast <- evt:
	default:
	}
}

// Observe turns non-frame engine updates into events.
func (h *EventHub) Observe(u sim.Update) {
	if u.Cause == sim.CauseFrame {
		return
	}
	h.Broadcast(Event{Type: string(u.Cause), Data: newStateView(u.State)})
}

func (h *EventHub) register(c *eventClient) {
	h.mu.Lock()
	h.clients.Put(c)
	h.mu.Unlock()
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	h.clients.Remove(c)
	h.mu.Unlock()
}

func (h *EventHub) run() {
	for {
		select {
		case <-h.stop:
			return
		case evt := <-h.broadcast:
			h.mu.RLock()
			h.clients.Each(func(c *eventClient) {
				select {
				case c.events <- evt:
				default:
					// slow client, drop
				}
			})
			h.mu.RUnlock()
		}
	}
}

// ServeHTTP streams events until the client goes away or the hub stops.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := &eventClient{events: make(chan Event, 16)}
	h.register(client)
	defer h.unregister(client)

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.stop:
			return
		case evt := <-client.events:
			data, err := json.Marshal(evt.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// stateView is the JSON shape served by /state and the event stream.
type stateView struct {
	fleet.State
	Summary fleet.Summary `json:"summary"`
}

func newStateView(st fleet.State) stateView {
	return stateView{State: st, Summary: st.Summary()}
}
