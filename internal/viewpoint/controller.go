// Package viewpoint steers the observer camera towards the default vantage or the focused robot.
package viewpoint

import (
	"math"

	"fleetview-sim/internal/fleet"
)

// Settings tunes the controller. Zero fields take the Default values.
type Settings struct {
	Home         fleet.Vec3
	LookAt       fleet.Vec3
	FocusOffset  fleet.Vec3
	PositionGain float64
	RotationGain float64
	PointerPitch float64
	PointerYaw   float64
}

// Default returns the reference vantage and gains.
func Default() Settings {
	return Settings{
		Home:         fleet.Vec3{X: 0, Y: 3.5, Z: 8},
		LookAt:       fleet.Vec3{X: 0, Y: 1, Z: 0},
		FocusOffset:  fleet.Vec3{X: 3, Y: 3, Z: 5},
		PositionGain: 0.02,
		RotationGain: 0.05,
		PointerPitch: 0.3,
		PointerYaw:   0.5,
	}
}

func (s Settings) withDefaults() Settings {
	d := Default()
	if s.Home == (fleet.Vec3{}) {
		s.Home = d.Home
	}
	if s.LookAt == (fleet.Vec3{}) {
		s.LookAt = d.LookAt
	}
	if s.FocusOffset == (fleet.Vec3{}) {
		s.FocusOffset = d.FocusOffset
	}
	if s.PositionGain <= 0 || s.PositionGain > 1 {
		s.PositionGain = d.PositionGain
	}
	if s.RotationGain <= 0 || s.RotationGain > 1 {
		s.RotationGain = d.RotationGain
	}
	if s.PointerPitch == 0 {
		s.PointerPitch = d.PointerPitch
	}
	if s.PointerYaw == 0 {
		s.PointerYaw = d.PointerYaw
	}
	return s
}

// Controller holds the smoothed camera state between frames.
type Controller struct {
	cfg      Settings
	position fleet.Vec3
	offset   fleet.Orientation
	pointer  struct{ x, y float64 }
}

// New creates a controller resting at the home vantage.
func New(cfg Settings) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{cfg: cfg, position: cfg.Home}
}

// SetPointer records the pointer position in normalized device coordinates [-1, 1].
func (c *Controller) SetPointer(x, y float64) {
	c.pointer.x = fleet.Clamp(x, -1, 1)
	c.pointer.y = fleet.Clamp(y, -1, 1)
}

// Position returns the current smoothed camera position.
func (c *Controller) Position() fleet.Vec3 { return c.position }

// Target returns the vantage the camera is converging to.
func (c *Controller) Target(focus *fleet.Vec3) fleet.Vec3 {
	if focus == nil {
		return c.cfg.Home
	}
	return focus.Add(c.cfg.FocusOffset)
}

// Step advances the camera by one frame. focus is the focused robot's position or nil.
func (c *Controller) Step(focus *fleet.Vec3) fleet.Pose {
	target := fleet.Orientation{
		Pitch: c.pointer.y * c.cfg.PointerPitch,
		Yaw:   -c.pointer.x * c.cfg.PointerYaw,
	}
	c.offset.Pitch += (target.Pitch - c.offset.Pitch) * c.cfg.RotationGain
	c.offset.Yaw += (target.Yaw - c.offset.Yaw) * c.cfg.RotationGain

	c.position = c.position.Lerp(c.Target(focus), c.cfg.PositionGain)

	look := c.cfg.LookAt
	if focus != nil {
		look = *focus
	}
	base := lookAngles(c.position, look)
	return fleet.Pose{
		Position: c.position,
		LookAt:   look,
		Offset:   c.offset,
		Rotation: fleet.Orientation{
			Pitch: base.Pitch + c.offset.Pitch,
			Yaw:   base.Yaw + c.offset.Yaw,
		},
	}
}

// lookAngles returns the pitch/yaw that points a camera at from towards to.
// A camera with zero yaw looks down -Z.
func lookAngles(from, to fleet.Vec3) fleet.Orientation {
	d := to.Sub(from)
	horiz := math.Hypot(d.X, d.Z)
	if horiz == 0 && d.Y == 0 {
		return fleet.Orientation{}
	}
	return fleet.Orientation{
		Pitch: math.Atan2(d.Y, horiz),
		Yaw:   math.Atan2(-d.X, -d.Z),
	}
}
