// Package dashboard renders Grafana dashboards over the GreptimeDB tables the
// engine exports to.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"fleetview-sim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Render parses dashboard templates and writes rendered dashboards to outDir.
// GREPTIMEDB_DATASOURCE_UID must be set.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	data := struct {
		TelemetryTable string
		CommandTable   string
	}{
		TelemetryTable: telemetry.TelemetryTableName,
		CommandTable:   telemetry.CommandTableName,
	}
	if v := os.Getenv("GREPTIMEDB_TABLE"); v != "" {
		data.TelemetryTable = v
	}
	if v := os.Getenv("COMMAND_LOG_TABLE"); v != "" {
		data.CommandTable = v
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	for _, entry := range names {
		t, err := template.New(entry.Name()).Funcs(funcMap).ParseFS(templates, "templates/"+entry.Name())
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(entry.Name(), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", entry.Name(), err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
