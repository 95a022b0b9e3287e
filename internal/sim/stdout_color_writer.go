// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/gookit/color"

	"fleetview-sim/internal/fleet"
	"fleetview-sim/internal/telemetry"
)

var (
	styleTime     = color.Style{color.FgGray}
	styleSession  = color.Style{color.FgBlue}
	styleRobot    = color.Style{color.FgWhite, color.OpBold}
	stylePosition = color.Style{color.FgGreen}
	styleBattery  = color.Style{color.FgCyan}
	styleSpeed    = color.Style{color.FgYellow}
	styleTemp     = color.Style{color.FgMagenta}
	styleFocus    = color.Style{color.FgMagenta, color.OpBold}
	styleIssued   = color.Style{color.FgCyan, color.OpBold}
	styleResponse = color.Style{color.FgGray}
)

var statusStyles = map[fleet.Status]color.Style{
	fleet.StatusActive:   {color.FgGreen},
	fleet.StatusIdle:     {color.FgBlue},
	fleet.StatusCharging: {color.FgYellow},
	fleet.StatusError:    {color.FgRed, color.OpBold},
}

// ColorStdoutWriter prints telemetry rows and command entries using ANSI colors.
type ColorStdoutWriter struct {
	seed []fleet.Robot
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
// seed is printed once as a roster before the first row.
func NewColorStdoutWriter(seed []fleet.Robot) *ColorStdoutWriter {
	return &ColorStdoutWriter{seed: seed, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if len(w.seed) == 0 {
		return
	}
	fmt.Fprintln(w.out, "Fleet Roster:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tType\tStatus\tTask\n")
	for _, r := range w.seed {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Type, statusStyle(r.Status).Sprint(r.Status), r.Task)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

func statusStyle(st fleet.Status) color.Style {
	if s, ok := statusStyles[st]; ok {
		return s
	}
	return color.Style{color.FgDefault}
}

// Write outputs a single telemetry row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.TelemetryRow) error {
	w.once.Do(w.printOverview)

	line := fmt.Sprintf("%s %s %s %s %s %s %s %s",
		styleTime.Sprintf("[%s]", row.Timestamp.Format(time.RFC3339)),
		styleSession.Sprintf("tick=%d", row.Tick),
		styleRobot.Sprintf("robot=%s", row.RobotID),
		stylePosition.Sprintf("pos=(%.2f,%.2f)", row.X, row.Z),
		styleBattery.Sprintf("batt=%.1f", row.Battery),
		styleSpeed.Sprintf("spd=%.2f", row.Speed),
		styleTemp.Sprintf("temp=%.1f", row.Temperature),
		statusStyle(row.Status).Sprintf("status=%s", row.Status),
	)
	if row.Focused {
		line += " " + styleFocus.Sprint("focus")
	}
	if row.Paused {
		line += " " + styleTime.Sprint("paused")
	}
	_, err := fmt.Fprintln(w.out, line)
	return err
}

// WriteBatch outputs multiple telemetry rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommand prints a command log entry.
func (w *ColorStdoutWriter) WriteCommand(row telemetry.CommandRow) error {
	w.once.Do(w.printOverview)
	style := styleResponse
	if row.Kind == telemetry.CommandIssued {
		style = styleIssued
	}
	_, err := fmt.Fprintf(w.out, "%s %s\n",
		styleTime.Sprintf("[%s]", row.Timestamp.Format(time.RFC3339)),
		style.Sprint(row.Text))
	return err
}

// WriteCommands prints multiple command log entries.
func (w *ColorStdoutWriter) WriteCommands(rows []telemetry.CommandRow) error {
	for _, r := range rows {
		if err := w.WriteCommand(r); err != nil {
			return err
		}
	}
	return nil
}
