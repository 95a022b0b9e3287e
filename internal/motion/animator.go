// Package motion advances robots along their cyclic patrol routes.
package motion

import (
	"math"
	"time"

	"fleetview-sim/internal/fleet"
)

// DefaultRate is path units per second per m/s of speed (0.0008 per frame at 60 fps).
const DefaultRate = 0.048

// headingEpsilon is the per-axis displacement below which a segment is treated as stationary.
const headingEpsilon = 0.01

// Animator keeps per-robot route progress across frames.
type Animator struct {
	rate     float64
	progress map[string]float64
}

// NewAnimator creates an animator. A non-positive rate uses DefaultRate.
func NewAnimator(rate float64) *Animator {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Animator{rate: rate, progress: make(map[string]float64)}
}

// Progress returns the stored route progress for a robot.
func (a *Animator) Progress(id string) float64 {
	return a.progress[id]
}

// Reset rewinds a robot to the start of its route.
func (a *Animator) Reset(id string) {
	delete(a.progress, id)
}

// Step advances every eligible robot by dt.
func (a *Animator) Step(s *fleet.State, dt time.Duration) {
	if s.Paused || dt <= 0 {
		return
	}
	for i := range s.Robots {
		a.advance(&s.Robots[i], dt)
	}
}

func (a *Animator) advance(r *fleet.Robot, dt time.Duration) {
	if r.Status == fleet.StatusCharging || len(r.Path) <= 1 {
		return
	}
	last := float64(len(r.Path) - 1)
	p := a.progress[r.ID] + a.rate*dt.Seconds()*r.Speed
	if p >= last || p < 0 {
		p = 0
	}
	a.progress[r.ID] = p
	Place(r, p)
}

// Place positions r at progress p along its path and orients it along the segment.
// The vertical component is left untouched.
func Place(r *fleet.Robot, p float64) {
	n := len(r.Path)
	if n == 0 {
		return
	}
	i := int(math.Floor(p)) % n
	t := p - math.Floor(p)
	from := r.Path[i]
	to := r.Path[(i+1)%n]

	r.Position.X = from.X + (to.X-from.X)*t
	r.Position.Z = from.Z + (to.Z-from.Z)*t

	dx := to.X - from.X
	dz := to.Z - from.Z
	if math.Abs(dx) > headingEpsilon || math.Abs(dz) > headingEpsilon {
		r.Heading = math.Atan2(dx, dz)
	}
}
