package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/muesli/reflow/wordwrap"

	"fleetview-sim/internal/command"
	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Controls is the engine surface the console drives.
type Controls interface {
	Command(raw string) command.Result
	ToggleFleetPanel()
	SetPointer(x, y float64)
}

// logMsg carries a command log line for the viewport.
type logMsg struct {
	line   string
	issued bool
}

type telemetryMsg struct{ telemetry.TelemetryRow }

type snapshotMsg struct{ fleet.State }

type adminMsg struct{ active bool }

type setControlsMsg struct{ c Controls }

const (
	maxLogLines    = 1000
	historyLen     = 60
	chartHeight    = 5
	inputPrompt    = "fleet> "
	inputCharLimit = 120
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	issuedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	responseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	onColor       = lipgloss.Color("10")
	offColor      = lipgloss.Color("9")
)

// TUIWriter renders telemetry and the command log using a bubbletea console.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(seed []fleet.Robot) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(seed)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.TelemetryRow) error {
	w.program.Send(telemetryMsg{row})
	return nil
}

// WriteBatch outputs multiple telemetry rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteCommand implements CommandWriter.
func (w *TUIWriter) WriteCommand(row telemetry.CommandRow) error {
	w.program.Send(logMsg{line: row.Text, issued: row.Kind == telemetry.CommandIssued})
	return nil
}

// WriteCommands outputs multiple command entries.
func (w *TUIWriter) WriteCommands(rows []telemetry.CommandRow) error {
	for _, r := range rows {
		_ = w.WriteCommand(r)
	}
	return nil
}

// Observe forwards engine snapshots. Frame updates are dropped; the console
// redraws at telemetry cadence.
func (w *TUIWriter) Observe(u Update) {
	if u.Cause == CauseFrame {
		return
	}
	w.program.Send(snapshotMsg{u.State})
}

// SetControls registers the engine the console issues commands to.
func (w *TUIWriter) SetControls(c Controls) {
	w.program.Send(setControlsMsg{c: c})
}

// SetAdminStatus updates the admin API indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	table      table.Model
	vp         viewport.Model
	input      textinput.Model
	controls   Controls
	state      fleet.State
	order      []string
	latest     map[string]telemetry.TelemetryRow
	avgHistory []float64
	lastTick   uint64
	logs       []string
	admin      bool
	wrap       bool
	autoscroll bool
	help       bool
	width      int
	height     int
}

func newTUIModel(seed []fleet.Robot) tuiModel {
	cols := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Name", Width: 8},
		{Title: "Status", Width: 9},
		{Title: "Batt %", Width: 7},
		{Title: "Speed", Width: 6},
		{Title: "Temp", Width: 6},
		{Title: "Task", Width: 34},
	}
	order := make([]string, 0, len(seed))
	for _, r := range seed {
		order = append(order, r.ID)
	}
	in := textinput.New()
	in.Prompt = inputPrompt
	in.Placeholder = `say "help" for options`
	in.CharLimit = inputCharLimit
	in.Focus()
	m := tuiModel{
		table:      table.New(table.WithColumns(cols), table.WithHeight(len(seed)+1)),
		vp:         viewport.New(0, 0),
		input:      in,
		state:      fleet.State{Robots: seed, ShowPanels: true},
		order:      order,
		latest:     make(map[string]telemetry.TelemetryRow),
		autoscroll: true,
	}
	m.refreshTable()
	return m
}

func (m tuiModel) Init() tea.Cmd { return textinput.Blink }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.input.Width = msg.Width - len(inputPrompt) - 1
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.MouseMsg:
		if m.controls == nil || m.width <= 0 || m.height <= 0 {
			return m, nil
		}
		x, y := normalizePointer(msg.X, msg.Y, m.width, m.height)
		c := m.controls
		return m, func() tea.Msg {
			c.SetPointer(x, y)
			return nil
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			raw := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(raw) == "" || m.controls == nil {
				return m, nil
			}
			c := m.controls
			return m, func() tea.Msg {
				c.Command(raw)
				return nil
			}
		case "ctrl+f":
			if m.controls == nil {
				return m, nil
			}
			c := m.controls
			return m, func() tea.Msg {
				c.ToggleFleetPanel()
				return nil
			}
		case "ctrl+w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "ctrl+o":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "ctrl+g":
			m.help = !m.help
			return m, nil
		case "up":
			if !m.autoscroll {
				m.vp.LineUp(1)
			}
			return m, nil
		case "down":
			if !m.autoscroll {
				m.vp.LineDown(1)
			}
			return m, nil
		case "pgup":
			if !m.autoscroll {
				m.vp.LineUp(10)
			}
			return m, nil
		case "pgdown":
			if !m.autoscroll {
				m.vp.LineDown(10)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case logMsg:
		line := responseStyle.Render(msg.line)
		if msg.issued {
			line = issuedStyle.Render(msg.line)
		}
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case telemetryMsg:
		if _, ok := m.latest[msg.RobotID]; !ok && !contains(m.order, msg.RobotID) {
			m.order = append(m.order, msg.RobotID)
		}
		m.latest[msg.RobotID] = msg.TelemetryRow
		m.recordAverage(msg.Tick)
		m.refreshTable()
	case snapshotMsg:
		m.state = msg.State
		m.refreshTable()
		m.updateViewportHeight()
		m.refreshViewport()
	case adminMsg:
		m.admin = msg.active
	case setControlsMsg:
		m.controls = msg.c
	}
	return m, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// normalizePointer maps a terminal cell to normalized device coordinates,
// x to the right and y up, both in [-1, 1].
func normalizePointer(col, row, width, height int) (float64, float64) {
	x := float64(col)/float64(width)*2 - 1
	y := 1 - float64(row)/float64(height)*2
	return fleet.Clamp(x, -1, 1), fleet.Clamp(y, -1, 1)
}

// recordAverage appends the mean battery once every robot reported for tick.
func (m *tuiModel) recordAverage(tick uint64) {
	if tick == m.lastTick || len(m.latest) < len(m.order) {
		return
	}
	sum := 0.0
	for _, r := range m.latest {
		if r.Tick != tick {
			return
		}
		sum += r.Battery
	}
	m.lastTick = tick
	m.avgHistory = append(m.avgHistory, sum/float64(len(m.latest)))
	if len(m.avgHistory) > historyLen {
		m.avgHistory = m.avgHistory[len(m.avgHistory)-historyLen:]
	}
}

func (m *tuiModel) refreshTable() {
	byID := make(map[string]fleet.Robot, len(m.state.Robots))
	for _, r := range m.state.Robots {
		byID[r.ID] = r
	}
	rows := make([]table.Row, 0, len(m.order))
	for _, id := range m.order {
		r := byID[id]
		name, task := r.Name, r.Task
		status, batt, speed, temp := r.Status, r.Battery, r.Speed, r.Temperature
		if t, ok := m.latest[id]; ok {
			status, batt, speed, temp = t.Status, t.Battery, t.Speed, t.Temperature
			if name == "" {
				name = t.Name
			}
		}
		if m.state.FocusedRobot != nil && *m.state.FocusedRobot == id {
			name = "▶ " + name
		}
		rows = append(rows, table.Row{
			id,
			name,
			string(status),
			fmt.Sprintf("%.1f", batt),
			fmt.Sprintf("%.2f", speed),
			fmt.Sprintf("%.1f", temp),
			task,
		})
	}
	m.table.SetRows(rows)
	m.table.SetHeight(len(rows) + 1)
}

func (m tuiModel) showFleet() bool { return m.state.ShowPanels && m.state.ShowFleetPanel }

func (m tuiModel) showDiagnostics() bool { return m.state.ShowPanels && m.state.ShowDiagnostics }

func (m *tuiModel) updateViewportHeight() {
	used := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderBottom()) + 1 // input
	if m.showFleet() {
		used += lipgloss.Height(m.table.View()) + 1
	}
	if m.showDiagnostics() {
		used += lipgloss.Height(m.renderDiagnostics()) + 1
	}
	h := m.height - used - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{m.renderHeader()}
	if m.showFleet() {
		sections = append(sections, divider, m.table.View())
	}
	if m.showDiagnostics() {
		sections = append(sections, divider, m.renderDiagnostics())
	}
	sections = append(sections, divider, m.vp.View(), divider, m.input.View(), m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	sum := m.state.Summary()
	title := titleStyle.Render("FLEETVIEW")
	if !m.state.ShowPanels {
		return title
	}
	focus := "none"
	if m.state.FocusedRobot != nil {
		focus = *m.state.FocusedRobot
	}
	line := fmt.Sprintf("%s  active %d/%d  avg battery %.1f%%  charging %d  errors %d  focus %s",
		title, sum.Active, sum.Total, sum.AvgBattery, sum.Charging, sum.Errors, focus)
	if m.state.Paused {
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("PAUSED")
	}
	return line
}

func (m tuiModel) renderDiagnostics() string {
	var b strings.Builder
	b.WriteString("Diagnostics\n")
	if len(m.avgHistory) > 1 {
		width := m.width - 12
		if width < 10 {
			width = 10
		}
		if width > historyLen {
			width = historyLen
		}
		b.WriteString(asciigraph.Plot(m.avgHistory,
			asciigraph.Height(chartHeight),
			asciigraph.Width(width),
			asciigraph.Caption("avg battery %")))
		b.WriteString("\n")
	} else {
		b.WriteString(dimStyle.Render("collecting battery history..."))
		b.WriteString("\n")
	}
	ids := make([]string, 0, len(m.latest))
	for id := range m.latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var temps []string
	for _, id := range ids {
		temps = append(temps, fmt.Sprintf("%s %.1f°C", id, m.latest[id].Temperature))
	}
	if len(temps) > 0 {
		b.WriteString("temperature: " + strings.Join(temps, "  "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func indicator(on bool) string {
	c := offColor
	if on {
		c = onColor
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	return fmt.Sprintf("Admin API %s | Panels %s | Fleet %s | Diagnostics %s | Wrap %s | Scroll %s | Help ctrl+g | %s",
		indicator(m.admin),
		indicator(m.state.ShowPanels),
		indicator(m.state.ShowFleetPanel),
		indicator(m.state.ShowDiagnostics),
		indicator(m.wrap),
		indicator(m.autoscroll),
		dimStyle.Render(time.Now().Format("15:04:05")),
	)
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" enter    send command",
		" ctrl+f   toggle fleet panel",
		" ctrl+w   toggle wrap for command log",
		" ctrl+o   toggle auto-scroll",
		" ctrl+g   toggle this help view",
		" esc      quit",
		"",
		"When auto-scroll is disabled:",
		" up/down       scroll one line",
		" pgup/pgdown   scroll ten lines",
		"",
		"Moving the mouse steers the viewpoint.",
		"",
		command.MsgHelp,
	}
	return strings.Join(lines, "\n")
}
