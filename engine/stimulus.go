package engine

import (
	"fmt"
	"math"
	"math/rand"
)

// Target is a single drawable owned by a stimulus. Implemented by the
// display layer; tests substitute fakes.
type Target interface {
	SetPosition(Point)
	SetOrientation(deg float64)
	Draw()
}

// ElementField is a drawable field of elements positioned relative to
// a common field center.
type ElementField interface {
	SetFieldPos(Point)
	SetOffsets([]Point)
	SetOpacities([]float64)
	FieldSize() Point
	Draw()
}

// UpdateParams carries the per-frame state the trial loop feeds into a
// stimulus. Frame counts from 1; Final marks the single forced update
// after the motion loop exits.
type UpdateParams struct {
	Time  float64
	Frame int
	Final bool
}

// A Stimulus owns one trajectory and one drawable and decides when the
// pose is recomputed. Update returns the position recorded for the
// frame.
type Stimulus interface {
	Update(UpdateParams) Point
	Draw()
	StartPosition() Point
	Finalized() bool
}

type stimPhase int

const (
	phasePlaced stimPhase = iota
	phaseUpdating
	phaseFinalized
)

// updateGate implements the shared periodic-update rule: fire on frame
// 1, on every k-th frame, and on the forced final update. every == 0
// means never update after initial placement.
type updateGate struct {
	every int
}

func (g updateGate) fires(frame int, final bool) bool {
	if g.every <= 0 {
		return false
	}
	return frame == 1 || frame%g.every == 0 || final
}

func validateMotion(speed float64, tr Trajectory) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("stimulus: speed must be finite, got %v", speed)
	}
	if tr == nil {
		return fmt.Errorf("stimulus: trajectory is required")
	}
	return nil
}

// MovingCircle recomputes its position from the trajectory on every
// frame (continuous motion).
type MovingCircle struct {
	target Target
	traj   Trajectory
	speed  float64
	start  Point
	pos    Point
	state  stimPhase
}

func NewMovingCircle(target Target, start Point, speed float64, traj Trajectory) (*MovingCircle, error) {
	if target == nil {
		return nil, fmt.Errorf("stimulus: target is required")
	}
	if err := validateMotion(speed, traj); err != nil {
		return nil, err
	}
	s := &MovingCircle{target: target, traj: traj, speed: speed, start: start, pos: start}
	target.SetPosition(start)
	return s, nil
}

func (s *MovingCircle) Update(p UpdateParams) Point {
	s.pos = s.traj.Position(s.pos, p.Time, s.speed)
	s.target.SetPosition(s.pos)
	s.target.SetOrientation(Orientation(s.traj, s.pos, p.Time, s.speed))
	if p.Final {
		s.state = phaseFinalized
	} else {
		s.state = phaseUpdating
	}
	return s.pos
}

func (s *MovingCircle) Draw()                { s.target.Draw() }
func (s *MovingCircle) StartPosition() Point { return s.start }
func (s *MovingCircle) Finalized() bool      { return s.state == phaseFinalized }

// JumpingCircle appears stationary between periodic jumps along the
// trajectory. The forced final update lands it exactly on the
// terminal position even when the frame count is not a multiple of
// the update frequency.
type JumpingCircle struct {
	MovingCircle
	gate updateGate
}

// NewJumpingCircle creates a jump-style stimulus updating every
// updateEvery frames; 0 means never after initial placement.
func NewJumpingCircle(target Target, start Point, speed float64, traj Trajectory, updateEvery int) (*JumpingCircle, error) {
	if updateEvery < 0 {
		return nil, fmt.Errorf("stimulus: update frequency must be >= 0, got %d", updateEvery)
	}
	inner, err := NewMovingCircle(target, start, speed, traj)
	if err != nil {
		return nil, err
	}
	return &JumpingCircle{MovingCircle: *inner, gate: updateGate{every: updateEvery}}, nil
}

func (s *JumpingCircle) Update(p UpdateParams) Point {
	if s.gate.fires(p.Frame, p.Final) {
		return s.MovingCircle.Update(p)
	}
	// The gate may hold the position, but the final update still
	// closes the stimulus lifecycle.
	if p.Final {
		s.state = phaseFinalized
	} else {
		s.state = phaseUpdating
	}
	return s.pos
}

// BackAndForthArray is an element field whose center moves
// continuously along the trajectory while its single rendered element
// toggles between two offsets along the local movement tangent.
type BackAndForthArray struct {
	field    ElementField
	traj     Trajectory
	speed    float64
	gate     updateGate
	start    Point
	fieldPos Point
	offset   Point
	back     bool
	state    stimPhase
}

func NewBackAndForthArray(field ElementField, start Point, speed float64, traj Trajectory, updateEvery int) (*BackAndForthArray, error) {
	if field == nil {
		return nil, fmt.Errorf("stimulus: element field is required")
	}
	if err := validateMotion(speed, traj); err != nil {
		return nil, err
	}
	if updateEvery < 0 {
		return nil, fmt.Errorf("stimulus: update frequency must be >= 0, got %d", updateEvery)
	}
	s := &BackAndForthArray{
		field:    field,
		traj:     traj,
		speed:    speed,
		gate:     updateGate{every: updateEvery},
		start:    start,
		fieldPos: start,
		back:     true,
	}
	field.SetFieldPos(start)
	field.SetOffsets([]Point{{}})
	return s, nil
}

func (s *BackAndForthArray) Update(p UpdateParams) Point {
	s.fieldPos = s.traj.Position(s.fieldPos, p.Time, s.speed)
	s.field.SetFieldPos(s.fieldPos)
	if s.gate.fires(p.Frame, p.Final) {
		s.offset = s.tangentOffset()
		s.field.SetOffsets([]Point{s.offset})
		s.back = !s.back
	}
	if p.Final {
		s.state = phaseFinalized
	} else {
		s.state = phaseUpdating
	}
	return Point{X: s.fieldPos.X + s.offset.X, Y: s.fieldPos.Y + s.offset.Y}
}

// tangentOffset places the element ahead of or behind the field
// center along the instantaneous movement direction. The direction is
// recomputed from the current field position each time, so it follows
// a rotating circular field.
func (s *BackAndForthArray) tangentOffset() Point {
	size := s.field.FieldSize()
	var off Point
	switch tr := s.traj.(type) {
	case *HorizontalTrajectory:
		off = Point{X: size.X}
	case *VerticalTrajectory:
		off = Point{Y: size.Y}
	case *DiagonalTrajectory:
		sg := diagonalSigns[tr.Direction()]
		off = Point{X: sg[0] * size.X, Y: sg[1] * size.Y}
	case *CircularTrajectory:
		tangent := radians(degrees(math.Atan2(s.fieldPos.Y, s.fieldPos.X)) + 90)
		off = Point{X: size.X * math.Cos(tangent), Y: size.Y * math.Sin(tangent)}
	}
	if s.back {
		return Point{X: -off.X, Y: -off.Y}
	}
	return off
}

func (s *BackAndForthArray) Draw()                { s.field.Draw() }
func (s *BackAndForthArray) StartPosition() Point { return s.start }
func (s *BackAndForthArray) Finalized() bool      { return s.state == phaseFinalized }

// SwarmStimulus shows nActive of n element slots, re-randomizing the
// visible set (sampling without replacement) at the periodic gate.
// The field itself does not move.
type SwarmStimulus struct {
	field    ElementField
	n        int
	nActive  int
	gate     updateGate
	rng      *rand.Rand
	start    Point
	fieldPos Point
	state    stimPhase
}

func NewSwarmStimulus(field ElementField, pos Point, n, nActive, updateEvery int, rng *rand.Rand) (*SwarmStimulus, error) {
	if field == nil {
		return nil, fmt.Errorf("stimulus: element field is required")
	}
	if n <= 0 {
		return nil, fmt.Errorf("stimulus: swarm needs at least one element, got %d", n)
	}
	if nActive < 0 || nActive > n {
		return nil, fmt.Errorf("stimulus: active count %d out of range [0,%d]", nActive, n)
	}
	if updateEvery < 0 {
		return nil, fmt.Errorf("stimulus: update frequency must be >= 0, got %d", updateEvery)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	s := &SwarmStimulus{
		field:    field,
		n:        n,
		nActive:  nActive,
		gate:     updateGate{every: updateEvery},
		rng:      rng,
		start:    pos,
		fieldPos: pos,
	}
	field.SetFieldPos(pos)
	s.resample()
	return s, nil
}

func (s *SwarmStimulus) resample() {
	opacities := make([]float64, s.n)
	perm := s.rng.Perm(s.n)
	for i := 0; i < s.nActive; i++ {
		opacities[perm[i]] = 1
	}
	s.field.SetOpacities(opacities)
}

func (s *SwarmStimulus) Update(p UpdateParams) Point {
	if s.gate.fires(p.Frame, p.Final) {
		s.resample()
	}
	if p.Final {
		s.state = phaseFinalized
	} else {
		s.state = phaseUpdating
	}
	return s.fieldPos
}

func (s *SwarmStimulus) Draw()                { s.field.Draw() }
func (s *SwarmStimulus) StartPosition() Point { return s.start }
func (s *SwarmStimulus) Finalized() bool      { return s.state == phaseFinalized }

// MovingSwarm is a swarm whose field center additionally travels
// along a trajectory, recomputed every frame.
type MovingSwarm struct {
	SwarmStimulus
	traj  Trajectory
	speed float64
}

func NewMovingSwarm(field ElementField, pos Point, n, nActive, updateEvery int, speed float64, traj Trajectory, rng *rand.Rand) (*MovingSwarm, error) {
	if err := validateMotion(speed, traj); err != nil {
		return nil, err
	}
	inner, err := NewSwarmStimulus(field, pos, n, nActive, updateEvery, rng)
	if err != nil {
		return nil, err
	}
	return &MovingSwarm{SwarmStimulus: *inner, traj: traj, speed: speed}, nil
}

func (s *MovingSwarm) Update(p UpdateParams) Point {
	s.SwarmStimulus.Update(p)
	s.fieldPos = s.traj.Position(s.fieldPos, p.Time, s.speed)
	s.field.SetFieldPos(s.fieldPos)
	return s.fieldPos
}
