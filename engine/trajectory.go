package engine

import (
	"fmt"
	"math"
)

// Point is a position in centered screen coordinates: (0,0) is the
// screen center, x grows rightwards, y grows upwards. The display
// layer translates to device coordinates when drawing.
type Point struct {
	X, Y float64
}

type TrajectoryKind string

const (
	KindHorizontal TrajectoryKind = "horizontal"
	KindVertical   TrajectoryKind = "vertical"
	KindDiagonal   TrajectoryKind = "diagonal"
	KindCircular   TrajectoryKind = "circular"
)

// A Trajectory is a pure function mapping elapsed time and speed to a
// target position. Position must be deterministic in (t, speed) so a
// trial can be restarted or replayed; current is only consulted for
// axes the trajectory leaves untouched.
type Trajectory interface {
	Position(current Point, t, speed float64) Point
	Kind() TrajectoryKind
}

// orientEps is the time step used to probe the local movement vector.
const orientEps = 1e-3

// Orientation returns the heading of tr at time t in degrees,
// clockwise-positive to match the display's rotation convention.
// It is derived from the position function itself, so every
// trajectory gets orientation for free.
func Orientation(tr Trajectory, current Point, t, speed float64) float64 {
	next := tr.Position(current, t+orientEps, speed)
	return -degrees(math.Atan2(next.Y-current.Y, next.X-current.X))
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("trajectory: %s must be finite, got %v", name, v)
	}
	return nil
}

// HorizontalTrajectory moves the target along the x axis, starting at
// +-distance/2 and crossing the center.
type HorizontalTrajectory struct {
	halfDistance float64
	direction    string
}

func NewHorizontalTrajectory(distancePx float64, direction string) (*HorizontalTrajectory, error) {
	if err := checkFinite("distance", distancePx); err != nil {
		return nil, err
	}
	if direction != "left" && direction != "right" {
		return nil, fmt.Errorf("trajectory: horizontal direction must be 'left' or 'right', got %q", direction)
	}
	return &HorizontalTrajectory{halfDistance: distancePx / 2, direction: direction}, nil
}

func (tr *HorizontalTrajectory) Kind() TrajectoryKind { return KindHorizontal }

func (tr *HorizontalTrajectory) Position(current Point, t, speed float64) Point {
	if tr.direction == "left" {
		return Point{X: -speed*t + tr.halfDistance, Y: current.Y}
	}
	return Point{X: speed*t - tr.halfDistance, Y: current.Y}
}

// VerticalTrajectory moves the target along the y axis.
type VerticalTrajectory struct {
	halfDistance float64
	direction    string
}

func NewVerticalTrajectory(distancePx float64, direction string) (*VerticalTrajectory, error) {
	if err := checkFinite("distance", distancePx); err != nil {
		return nil, err
	}
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("trajectory: vertical direction must be 'up' or 'down', got %q", direction)
	}
	return &VerticalTrajectory{halfDistance: distancePx / 2, direction: direction}, nil
}

func (tr *VerticalTrajectory) Kind() TrajectoryKind { return KindVertical }

func (tr *VerticalTrajectory) Position(current Point, t, speed float64) Point {
	if tr.direction == "up" {
		return Point{X: current.X, Y: speed*t - tr.halfDistance}
	}
	return Point{X: current.X, Y: -speed*t + tr.halfDistance}
}

// DiagonalTrajectory moves x and y in lockstep, producing a 45 degree
// line through the center.
type DiagonalTrajectory struct {
	halfDistance float64
	direction    string
}

var diagonalSigns = map[string][2]float64{
	"up_right":   {+1, +1},
	"up_left":    {-1, +1},
	"down_right": {+1, -1},
	"down_left":  {-1, -1},
}

func NewDiagonalTrajectory(distancePx float64, direction string) (*DiagonalTrajectory, error) {
	if err := checkFinite("distance", distancePx); err != nil {
		return nil, err
	}
	if _, ok := diagonalSigns[direction]; !ok {
		return nil, fmt.Errorf("trajectory: diagonal direction must be one of up_right, up_left, down_right, down_left; got %q", direction)
	}
	return &DiagonalTrajectory{halfDistance: distancePx / 2, direction: direction}, nil
}

func (tr *DiagonalTrajectory) Kind() TrajectoryKind { return KindDiagonal }

func (tr *DiagonalTrajectory) Direction() string { return tr.direction }

func (tr *DiagonalTrajectory) Position(current Point, t, speed float64) Point {
	s := diagonalSigns[tr.direction]
	return Point{
		X: s[0] * (speed*t - tr.halfDistance),
		Y: s[1] * (speed*t - tr.halfDistance),
	}
}

// CircularTrajectory moves the target on a circle around the screen
// center. Speed is in degrees of rotation per second. The radius is
// held in visual-angle degrees and the final offsets are converted
// back to pixels, so both directions share one conversion convention
// (the clockwise branch only negates the cosine term).
type CircularTrajectory struct {
	radiusDeg float64
	direction string
	phase     float64
	monitor   Monitor
}

func NewCircularTrajectory(radiusPx float64, direction string, phase float64, monitor Monitor) (*CircularTrajectory, error) {
	if err := checkFinite("radius", radiusPx); err != nil {
		return nil, err
	}
	if err := checkFinite("phase", phase); err != nil {
		return nil, err
	}
	if direction != "clockwise" && direction != "counterclockwise" {
		return nil, fmt.Errorf("trajectory: circular direction must be 'clockwise' or 'counterclockwise', got %q", direction)
	}
	if err := monitor.Validate(); err != nil {
		return nil, err
	}
	return &CircularTrajectory{
		radiusDeg: monitor.PxToDeg(radiusPx),
		direction: direction,
		phase:     phase,
		monitor:   monitor,
	}, nil
}

func (tr *CircularTrajectory) Kind() TrajectoryKind { return KindCircular }

func (tr *CircularTrajectory) Position(current Point, t, speed float64) Point {
	angle := radians(t*speed - tr.phase)
	x := tr.radiusDeg * math.Cos(angle)
	y := tr.radiusDeg * math.Sin(angle)
	if tr.direction == "clockwise" {
		x = -x
	}
	return Point{X: tr.monitor.DegToPx(x), Y: tr.monitor.DegToPx(y)}
}
