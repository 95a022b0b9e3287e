// Package admin serves a small web console over the running engine.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/sim"
)

// Engine is the slice of the simulator the console drives.
type Engine interface {
	Snapshot() fleet.State
	Summary() fleet.Summary
	LogSince(n int) []string
	Command(raw string) command.Result
	Focus(id string) command.Result
	ClearFocus() command.Result
	ToggleFleetPanel()
	SetPointer(x, y float64)
	Subscribe(fn sim.Listener) (cancel func())
}

//go:embed templates/index.html
var content embed.FS

type Server struct {
	engine Engine
	tpl    *template.Template
	hub    *EventHub
	log    *slog.Logger
	cancel func()
}

// NewServer wires the event hub to engine updates. Call Close when done.
func NewServer(engine Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"pct": func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) + "%" },
	}).ParseFS(content, "templates/index.html"))
	s := &Server{engine: engine, tpl: tpl, hub: NewEventHub(), log: log}
	s.hub.Start()
	s.cancel = engine.Subscribe(s.hub.Observe)
	return s
}

// Handler returns the console routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/state", s.handleState)
	r.Get("/summary", s.handleSummary)
	r.Get("/log", s.handleLog)
	r.Get("/events", s.hub.ServeHTTP)
	r.Post("/command", s.handleCommand)
	r.Post("/focus", s.handleFocus)
	r.Post("/pointer", s.handlePointer)
	r.Post("/toggle-fleet", s.handleToggleFleet)
	return r
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		s.hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("admin console listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close detaches from the engine and ends all event streams.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.hub.Stop()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Snapshot()
	data := struct {
		Session string
		Summary fleet.Summary
		Robots  []fleet.Robot
		Log     []string
	}{
		Session: st.Session,
		Summary: st.Summary(),
		Robots:  st.Robots,
		Log:     st.CommandLog,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateView(s.engine.Snapshot()))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Summary())
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	entries := s.engine.LogSince(since)
	if entries == nil {
		entries = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since":   since,
		"next":    since + len(entries),
		"entries": entries,
	})
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Intent  string   `json:"intent"`
	Entries []string `json:"entries"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeBody(r, &req, "command"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeResult(w, s.engine.Command(req.Command))
}

type focusRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeBody(r, &req, "id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// an unknown id is reported through the command log like a typed zoom
	if id := strings.TrimSpace(req.ID); id != "" {
		writeResult(w, s.engine.Focus(id))
		return
	}
	writeResult(w, s.engine.ClearFocus())
}

type pointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pointer payload")
		return
	}
	s.engine.SetPointer(req.X, req.Y)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFleet(w http.ResponseWriter, r *http.Request) {
	s.engine.ToggleFleetPanel()
	writeJSON(w, http.StatusOK, map[string]bool{"show_fleet_panel": s.engine.Snapshot().ShowFleetPanel})
}

// decodeBody accepts JSON or a form with field.
func decodeBody(r *http.Request, dst any, field string) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return errors.New("invalid JSON body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errors.New("invalid form body")
	}
	switch v := dst.(type) {
	case *commandRequest:
		v.Command = r.Form.Get(field)
	case *focusRequest:
		v.ID = r.Form.Get(field)
	}
	return nil
}

func writeResult(w http.ResponseWriter, res command.Result) {
	writeJSON(w, http.StatusOK, commandResponse{Intent: res.Intent, Entries: res.Entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
