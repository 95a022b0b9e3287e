// Fleet data model shared by the engine components
package fleet

import "math"

// Status is the operational state reported by a robot.
type Status string

// Robot status values.
const (
	StatusActive   Status = "active"
	StatusIdle     Status = "idle"
	StatusCharging Status = "charging"
	StatusError    Status = "error"
)

// Telemetry bounds enforced by the mutator and seed normalization.
const (
	MinBattery     = 5.0
	MaxBattery     = 100.0
	MinTemperature = 25.0
	MaxTemperature = 60.0
)

// Vec3 is a point in the warehouse frame. Y is vertical.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Lerp moves v towards o by fraction t.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t, v.Z + (o.Z-v.Z)*t}
}

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Robot holds identity, route and live telemetry for one fleet member.
type Robot struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	Battery     float64 `json:"battery" yaml:"battery"`
	Status      Status  `json:"status" yaml:"status"`
	Task        string  `json:"task" yaml:"task"`
	Speed       float64 `json:"speed" yaml:"speed"`
	Position    Vec3    `json:"position" yaml:"position"`
	Path        []Vec3  `json:"path" yaml:"path"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Color       string  `json:"color" yaml:"color"`
	Uptime      float64 `json:"uptime" yaml:"uptime"`
	PayloadKg   float64 `json:"payload_kg" yaml:"payload_kg"`

	// Heading is the yaw in radians, atan2(dx, dz) of the current segment.
	Heading float64 `json:"heading" yaml:"-"`
}

// Stationary reports whether the robot's route is a single point.
func (r Robot) Stationary() bool { return len(r.Path) <= 1 }

func (r Robot) clone() Robot {
	c := r
	c.Path = append([]Vec3(nil), r.Path...)
	return c
}

// Orientation is a pitch/yaw pair in radians.
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Pose is the observer viewpoint computed on the last frame.
type Pose struct {
	Position Vec3        `json:"position"`
	LookAt   Vec3        `json:"look_at"`
	Offset   Orientation `json:"offset"`
	Rotation Orientation `json:"rotation"`
}
