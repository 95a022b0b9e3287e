package telemetry

import (
	"math/rand"

	"fleetview-sim/internal/fleet"
)

// Drift magnitudes applied on every tick.
const (
	ChargeRate      = 0.3
	DrainRate       = 0.05
	SpeedJitter     = 0.1
	TempJitter      = 0.5
	DefaultMinSpeed = 0.3
)

// Rand is the random source used by the mutator. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Mutator nudges battery, speed and temperature of every robot once per tick.
type Mutator struct {
	rand     Rand
	minSpeed float64
}

// NewMutator creates a mutator. A nil source uses the global math/rand source.
func NewMutator(r Rand, minSpeed float64) *Mutator {
	if r == nil {
		r = globalRand{}
	}
	if minSpeed <= 0 {
		minSpeed = DefaultMinSpeed
	}
	return &Mutator{rand: r, minSpeed: minSpeed}
}

// Apply runs one full pass over robots.
func (m *Mutator) Apply(robots []fleet.Robot) {
	for i := range robots {
		m.mutate(&robots[i])
	}
}

func (m *Mutator) mutate(r *fleet.Robot) {
	if r.Status == fleet.StatusCharging {
		r.Battery += m.rand.Float64() * ChargeRate
	} else {
		r.Battery -= m.rand.Float64() * DrainRate
	}
	r.Battery = fleet.Clamp(r.Battery, fleet.MinBattery, fleet.MaxBattery)

	if r.Status == fleet.StatusActive {
		r.Speed += (m.rand.Float64() - 0.5) * SpeedJitter
		if r.Speed < m.minSpeed {
			r.Speed = m.minSpeed
		}
	}

	r.Temperature += (m.rand.Float64() - 0.5) * TempJitter
	r.Temperature = fleet.Clamp(r.Temperature, fleet.MinTemperature, fleet.MaxTemperature)
}
