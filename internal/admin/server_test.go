package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/config"
	"fleetview-sim/internal/logging"
	"fleetview-sim/internal/sim"
)

func newTestServer(t *testing.T) (*Server, *sim.Simulator) {
	t.Helper()
	s, err := sim.NewSimulator(config.Default(), nil, nil,
		sim.WithRand(rand.New(rand.NewSource(1))),
		sim.WithSession("admin-session"),
		sim.WithLogger(logging.Discard()),
	)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	srv := NewServer(s, logging.Discard())
	t.Cleanup(srv.Close)
	return srv, s
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"admin-session", "AMR-001", "AGV-003", "avg battery"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestHandleStateAndSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/state", "", "")
	var st struct {
		Session string `json:"session"`
		Robots  []struct {
			ID string `json:"id"`
		} `json:"robots"`
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Session != "admin-session" || len(st.Robots) != 4 || st.Summary.Total != 4 {
		t.Fatalf("unexpected state %+v", st)
	}

	w = do(t, h, http.MethodGet, "/summary", "", "")
	var sum struct {
		Active int `json:"active"`
		Total  int `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Total != 4 {
		t.Errorf("expected total 4, got %d", sum.Total)
	}
}

func TestHandleCommand(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/command", "application/json", `{"command":"pause fleet"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res commandResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Intent != "pause" || len(res.Entries) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !s.Snapshot().Paused {
		t.Fatal("expected paused")
	}

	form := url.Values{"command": {"resume fleet"}}.Encode()
	w = do(t, h, http.MethodPost, "/command", "application/x-www-form-urlencoded", form)
	if w.Code != http.StatusOK || s.Snapshot().Paused {
		t.Fatalf("form command failed: %d paused=%v", w.Code, s.Snapshot().Paused)
	}
}

func TestHandleCommand_BlankIsLogged(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/command", "application/json", `{"command":"   "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("blank command: expected 200, got %d", w.Code)
	}
	var res commandResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Intent != command.IntentUnknown {
		t.Fatalf("expected unknown intent, got %q", res.Intent)
	}
	if n := len(s.Snapshot().CommandLog); n != 2 {
		t.Fatalf("expected blank command in the log, got %d entries", n)
	}
}

func TestHandleCommand_Rejects(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()

	if w := do(t, h, http.MethodPost, "/command", "application/json", `{`); w.Code != http.StatusBadRequest {
		t.Errorf("bad json: expected 400, got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/command", "", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /command: expected 405, got %d", w.Code)
	}
	if n := len(s.Snapshot().CommandLog); n != 0 {
		t.Errorf("malformed requests reached the log: %d entries", n)
	}
}

func TestHandleLog(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()
	s.Command("help")
	s.Command("alert status")

	w := do(t, h, http.MethodGet, "/log?since=2", "", "")
	var page struct {
		Next    int      `json:"next"`
		Entries []string `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Next != 4 || len(page.Entries) != 2 || page.Entries[0] != "> alert status" {
		t.Fatalf("unexpected page %+v", page)
	}

	w = do(t, h, http.MethodGet, "/log?since=99", "", "")
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("expected empty entries, got %s", w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/log?since=-1", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative since: expected 400, got %d", w.Code)
	}
}

func TestHandleFocus(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/focus", "application/json", `{"id":"AMR-002"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res commandResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Intent != "focus" || res.Entries[0] != "> zoom AMR-002" {
		t.Fatalf("unexpected result %+v", res)
	}
	st := s.Snapshot()
	if st.FocusedRobot == nil || *st.FocusedRobot != "AMR-002" {
		t.Fatalf("expected focus on AMR-002, got %v", st.FocusedRobot)
	}

	w = do(t, h, http.MethodPost, "/focus", "application/json", `{"id":"nope"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unknown id: expected 200, got %d", w.Code)
	}
	st = s.Snapshot()
	if st.FocusedRobot != nil || st.CommandLog[len(st.CommandLog)-1] != command.MsgRobotNotFound {
		t.Fatalf("unknown id: focus=%v log=%q", st.FocusedRobot, st.CommandLog)
	}

	do(t, h, http.MethodPost, "/focus", "application/json", `{"id":"AMR-002"}`)
	if w := do(t, h, http.MethodPost, "/focus", "application/x-www-form-urlencoded", "id="); w.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", w.Code)
	}
	st = s.Snapshot()
	if st.FocusedRobot != nil {
		t.Fatal("expected focus cleared")
	}
	if got := st.CommandLog[len(st.CommandLog)-2]; got != "> clear focus" {
		t.Fatalf("expected clear focus in the log, got %q", got)
	}
}

func TestHandlePointerAndToggle(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()

	if w := do(t, h, http.MethodPost, "/pointer", "application/json", `{"x":0.5,"y":-0.5}`); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/pointer", "application/json", `x`); w.Code != http.StatusBadRequest {
		t.Errorf("bad pointer: expected 400, got %d", w.Code)
	}

	w := do(t, h, http.MethodPost, "/toggle-fleet", "", "")
	if !strings.Contains(w.Body.String(), `"show_fleet_panel":true`) {
		t.Fatalf("unexpected toggle body %s", w.Body.String())
	}
	if !s.Snapshot().ShowFleetPanel {
		t.Fatal("expected fleet panel shown")
	}
	if n := len(s.Snapshot().CommandLog); n != 0 {
		t.Errorf("controls must not log, got %d entries", n)
	}
}

func TestEvents_StreamCommandUpdates(t *testing.T) {
	srv, s := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q: %v", prefix, lines.Err())
		return ""
	}
	waitFor("event: connected")

	s.Frame(time.Second / 60)
	s.Command("pause fleet")
	if got := waitFor("event: "); got != "event: command" {
		t.Fatalf("expected command event first, got %q", got)
	}
	data := waitFor("data: ")
	if !strings.Contains(data, `"paused":true`) || !strings.Contains(data, `"summary"`) {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestEventHub_ObserveSkipsFrames(t *testing.T) {
	h := NewEventHub()
	h.Observe(sim.Update{Cause: sim.CauseFrame})
	select {
	case <-h.broadcast:
		t.Fatal("frame update was broadcast")
	default:
	}
	h.Observe(sim.Update{Cause: sim.CauseTick})
	select {
	case evt := <-h.broadcast:
		if evt.Type != "tick" {
			t.Fatalf("event type %q", evt.Type)
		}
	default:
		t.Fatal("tick update was not broadcast")
	}
}
