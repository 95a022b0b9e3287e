package scenario

import "time"

// BuiltIn returns predefined operator walkthroughs keyed by name.
func BuiltIn() map[string]Script {
	return map[string]Script{
		"tour": {
			Name:        "Tour",
			Description: "Opens the fleet panel and visits every robot in the reference warehouse.",
			Steps: []Step{
				{At: 0, Command: "show fleet status"},
				{At: 3 * time.Second, Command: "zoom AMR-001"},
				{At: 8 * time.Second, Command: "zoom Bolt"},
				{At: 13 * time.Second, Command: "zoom AGV-003"},
				{At: 18 * time.Second, Command: "zoom Dash"},
				{At: 23 * time.Second, Command: "clear focus"},
				{At: 25 * time.Second, Command: "alert status"},
			},
		},
		"maintenance": {
			Name:        "Maintenance",
			Description: "Halts the fleet, inspects diagnostics and the charging robot, then resumes.",
			Steps: []Step{
				{At: 0, Command: "pause fleet"},
				{At: 2 * time.Second, Command: "show diagnostics"},
				{At: 4 * time.Second, Command: "alert status"},
				{At: 6 * time.Second, Command: "zoom Crate"},
				{At: 12 * time.Second, Command: "unfocus"},
				{At: 13 * time.Second, Command: "resume fleet"},
			},
		},
		"overlays": {
			Name:        "Overlays",
			Description: "Hides and restores the heads-up overlays.",
			Steps: []Step{
				{At: 0, Command: "hide panels"},
				{At: 5 * time.Second, Command: "show panels"},
				{At: 6 * time.Second, Command: "help"},
			},
		},
	}
}

// Lookup returns a built-in script by name, falling back to loading path from disk.
func Lookup(nameOrPath string) (*Script, error) {
	if s, ok := BuiltIn()[nameOrPath]; ok {
		return &s, nil
	}
	return Load(nameOrPath)
}
