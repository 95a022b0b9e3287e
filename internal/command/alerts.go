package command

import (
	"fmt"
	"sort"
	"strings"

	"fleetview-sim/internal/fleet"
)

// Default alert thresholds.
const (
	DefaultLowBattery      = 40.0
	DefaultHighTemperature = 55.0
)

const alertPrefix = "Scanning fleet for alerts... "

// Alerts holds the thresholds used by the alert scan.
type Alerts struct {
	LowBattery      float64
	HighTemperature float64
}

func (a Alerts) withDefaults() Alerts {
	if a.LowBattery <= 0 {
		a.LowBattery = DefaultLowBattery
	}
	if a.HighTemperature <= 0 {
		a.HighTemperature = DefaultHighTemperature
	}
	return a
}

// Scan reports the most pressing known condition: robots in error first,
// then the lowest battery below threshold, then overheating robots.
func (a Alerts) Scan(robots []fleet.Robot) string {
	a = a.withDefaults()
	var errored []string
	for _, r := range robots {
		if r.Status == fleet.StatusError {
			errored = append(errored, r.ID)
		}
	}
	if len(errored) > 0 {
		return alertPrefix + strings.Join(errored, ", ") + " reporting error."
	}

	var low *fleet.Robot
	for i := range robots {
		if robots[i].Battery < a.LowBattery && (low == nil || robots[i].Battery < low.Battery) {
			low = &robots[i]
		}
	}
	if low != nil {
		return fmt.Sprintf("%s%s battery low (%.0f%%).", alertPrefix, low.ID, low.Battery)
	}

	var hot []fleet.Robot
	for _, r := range robots {
		if r.Temperature > a.HighTemperature {
			hot = append(hot, r)
		}
	}
	if len(hot) > 0 {
		sort.Slice(hot, func(i, j int) bool { return hot[i].Temperature > hot[j].Temperature })
		return fmt.Sprintf("%s%s temperature high (%.1f°C).", alertPrefix, hot[0].ID, hot[0].Temperature)
	}
	return alertPrefix + "all systems nominal."
}
