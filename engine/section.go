package engine

import (
	"fmt"
	"math/rand"
	"os"
)

// settleSeconds holds the terminal frame visible before the trial-end
// marker is sent.
const settleSeconds = 0.2

// Painter is the drawing surface a section runs against. Flip blocks
// until the next frame boundary; it is the loop's only suspension
// point.
type Painter interface {
	Clear()
	Flip()
	Wait(seconds float64)
	DrawText(text string, pos Point)
	DrawArrow(start Point, trajectory string, length float64)
}

// Visuals creates the drawables stimuli own. Implemented by the
// display layer; tests substitute fakes.
type Visuals interface {
	NewCircleTarget(radius float64, fillColor, lineColor string) Target
	NewElementField(fieldSize, elementSize float64, n int, color string) ElementField
}

// Runtime bundles the collaborators a section needs. All of them are
// owned by the session; sections only borrow them for one run.
type Runtime struct {
	Settings        *Settings
	Paint           Painter
	Visuals         Visuals
	Input           Input
	Tracker         TrackerLink
	ExperimentClock Clock
	NewTrialClock   func() Clock
	Rand            *rand.Rand
}

// A Section is one stage of the experiment. Run returns the data rows
// to append to the session file, or nil for stages that record
// nothing.
type Section interface {
	Name() string
	Run(rt *Runtime) ([]Row, error)
}

// waitSignals blocks at an instruction/wait point until a semantic
// signal arrives. Cancel is fatal; recalibrate is reported only where
// allowed.
func waitSignals(rt *Runtime, allowRecalibrate bool) (recalibrate bool, err error) {
	rt.Input.ClearSignals()
	for {
		rt.Input.Poll()
		switch {
		case rt.Input.CancelRequested():
			return false, ErrCancelled
		case allowRecalibrate && rt.Input.RecalibrateRequested():
			rt.Input.ClearSignals()
			return true, nil
		case rt.Input.ContinueRequested():
			rt.Input.ClearSignals()
			return false, nil
		}
		rt.Paint.Wait(0.01)
	}
}

func waitContinue(rt *Runtime) error {
	_, err := waitSignals(rt, false)
	return err
}

// TextSection shows an instruction screen and waits for the continue
// signal.
type TextSection struct {
	SectionName string
	Text        string
}

func (s *TextSection) Name() string { return s.SectionName }

func (s *TextSection) Run(rt *Runtime) ([]Row, error) {
	rt.Paint.Clear()
	rt.Paint.DrawText(s.Text, Point{})
	rt.Paint.Flip()
	return nil, waitContinue(rt)
}

// buildTrajectory maps a trajectory name to its start position and
// constructed trajectory. The start is the trajectory's t=0 position.
func buildTrajectory(s *Settings, name string) (Point, Trajectory, error) {
	d := s.Monitor.DegToPx(s.Targets.MovingDistance)
	switch name {
	case "hor_right":
		tr, err := NewHorizontalTrajectory(d, "right")
		return Point{X: -d / 2}, tr, err
	case "hor_left":
		tr, err := NewHorizontalTrajectory(d, "left")
		return Point{X: d / 2}, tr, err
	case "ver_up":
		tr, err := NewVerticalTrajectory(d, "up")
		return Point{Y: -d / 2}, tr, err
	case "ver_down":
		tr, err := NewVerticalTrajectory(d, "down")
		return Point{Y: d / 2}, tr, err
	case "diag_up_right":
		tr, err := NewDiagonalTrajectory(d, "up_right")
		return Point{X: -d / 2, Y: -d / 2}, tr, err
	case "diag_up_left":
		tr, err := NewDiagonalTrajectory(d, "up_left")
		return Point{X: d / 2, Y: -d / 2}, tr, err
	case "diag_down_right":
		tr, err := NewDiagonalTrajectory(d, "down_right")
		return Point{X: -d / 2, Y: d / 2}, tr, err
	case "diag_down_left":
		tr, err := NewDiagonalTrajectory(d, "down_left")
		return Point{X: d / 2, Y: d / 2}, tr, err
	case "cir_clock":
		tr, err := NewCircularTrajectory(d/2, "clockwise", 0, s.Monitor)
		return Point{X: -d / 2}, tr, err
	case "cir_counter":
		tr, err := NewCircularTrajectory(d/2, "counterclockwise", 0, s.Monitor)
		return Point{X: d / 2}, tr, err
	default:
		return Point{}, nil, fmt.Errorf("section: unknown trajectory %q", name)
	}
}

// NewTrialStimulus builds the stimulus for one trial from the
// configured target type. Linear trajectories take the speed in
// px/s; circular trajectories keep the angular speed. The trajectory
// kind is returned so the caller can derive the trial duration.
func NewTrialStimulus(s *Settings, vis Visuals, targetType, trajName string, speedDeg float64, rng *rand.Rand) (Stimulus, Point, TrajectoryKind, error) {
	start, traj, err := buildTrajectory(s, trajName)
	if err != nil {
		return nil, Point{}, KindHorizontal, err
	}
	speed := s.Monitor.DegToPx(speedDeg)
	if traj.Kind() == KindCircular {
		speed = speedDeg
	}
	radius := s.Targets.Radius
	switch targetType {
	case "moving_circle":
		target := vis.NewCircleTarget(radius, s.Targets.FillColor, s.Targets.LineColor)
		stim, err := NewMovingCircle(target, start, speed, traj)
		return stim, start, traj.Kind(), err
	case "jumping_circle":
		target := vis.NewCircleTarget(radius, s.Targets.FillColor, s.Targets.LineColor)
		stim, err := NewJumpingCircle(target, start, speed, traj, s.JumpFrames())
		return stim, start, traj.Kind(), err
	case "back_and_forth_array":
		// element size doubled so the rendered element matches the
		// other targets
		field := vis.NewElementField(radius, 2*radius, 1, s.Targets.FillColor)
		stim, err := NewBackAndForthArray(field, start, speed, traj, s.JumpFrames())
		return stim, start, traj.Kind(), err
	case "swarm":
		field := vis.NewElementField(2*radius, s.Swarm.ElementSize, s.Swarm.NElements, s.Targets.FillColor)
		stim, err := NewSwarmStimulus(field, start, s.Swarm.NElements, s.Swarm.NActive, s.JumpFrames(), rng)
		return stim, start, traj.Kind(), err
	case "moving_swarm":
		field := vis.NewElementField(2*radius, s.Swarm.ElementSize, s.Swarm.NElements, s.Targets.FillColor)
		stim, err := NewMovingSwarm(field, start, s.Swarm.NElements, s.Swarm.NActive, s.JumpFrames(), speed, traj, rng)
		return stim, start, traj.Kind(), err
	default:
		return nil, Point{}, KindHorizontal, fmt.Errorf("section: unknown target type %q", targetType)
	}
}

var trajectoryTexts = map[string]string{
	"hor_right":       "horizontally to the right",
	"hor_left":        "horizontally to the left",
	"ver_up":          "vertically upwards",
	"ver_down":        "vertically downwards",
	"diag_up_right":   "diagonally upwards to the right",
	"diag_up_left":    "diagonally upwards to the left",
	"diag_down_right": "diagonally downwards to the right",
	"diag_down_left":  "diagonally downwards to the left",
	"cir_clock":       "in a clockwise circle",
	"cir_counter":     "in a counterclockwise circle",
}

var movementTexts = map[string]string{
	"moving_circle":        "moves consistently",
	"jumping_circle":       "jumps",
	"back_and_forth_array": "jumps back and forth, while moving",
	"swarm":                "flickers in place",
	"moving_swarm":         "flickers, while moving",
}

// arrowOffsets shifts the instruction arrow away from the target in
// the movement direction.
var arrowOffsets = map[string]Point{
	"hor_right":       {X: 50},
	"hor_left":        {X: -50},
	"ver_up":          {Y: 50},
	"ver_down":        {Y: -50},
	"diag_up_right":   {X: 50, Y: 50},
	"diag_up_left":    {X: -50, Y: 50},
	"diag_down_right": {X: 50, Y: -50},
	"diag_down_left":  {X: -50, Y: -50},
}

// TrialSection runs one timed presentation of a stimulus: fixation
// instruction, motion phase, data rows.
type TrialSection struct {
	SectionName string
	Meta        RowMeta
	TimeOffset  float64

	stim     Stimulus
	loop     *TrialLoop
	startPos Point
}

func (s *TrialSection) Name() string { return s.SectionName }

func (s *TrialSection) initStimulus(rt *Runtime) error {
	stim, start, kind, err := NewTrialStimulus(rt.Settings, rt.Visuals, s.Meta.TargetType, s.Meta.TargetTrajectory, s.Meta.TargetSpeed, rt.Rand)
	if err != nil {
		return fmt.Errorf("%s: %w", s.SectionName, err)
	}
	reqSec, err := RequiredSeconds(rt.Settings.Monitor, kind, s.Meta.TargetSpeed, rt.Settings.Targets.MovingDistance, rt.Settings.Targets.MaxSeconds)
	if err != nil {
		return fmt.Errorf("%s: %w", s.SectionName, err)
	}
	s.stim = stim
	s.startPos = start
	s.loop = NewTrialLoop(stim, s.Meta, reqSec, s.TimeOffset)
	return nil
}

// drawInstructionTarget places the stimulus at its start position
// without consuming a motion frame.
func (s *TrialSection) drawInstructionTarget() {
	s.stim.Update(UpdateParams{Time: s.TimeOffset, Frame: 0})
	s.stim.Draw()
}

func (s *TrialSection) instructionText(rt *Runtime) string {
	return fmt.Sprintf(
		"Fixate on the target as it %s %s.\n\nFixate the target, press %s to make the text disappear, and press %s again to start the trial.",
		movementTexts[s.Meta.TargetType], trajectoryTexts[s.Meta.TargetTrajectory],
		rt.Settings.Controls.Continue, rt.Settings.Controls.Continue)
}

func (s *TrialSection) drawArrowAndTarget(rt *Runtime) {
	rt.Paint.Clear()
	if off, ok := arrowOffsets[s.Meta.TargetTrajectory]; ok {
		start := Point{X: s.startPos.X + off.X, Y: s.startPos.Y + off.Y}
		rt.Paint.DrawArrow(start, s.Meta.TargetTrajectory, 100)
	}
	s.drawInstructionTarget()
	rt.Paint.DrawText(s.instructionText(rt), Point{Y: float64(rt.Settings.Monitor.Resolution[1]) / 4})
	rt.Paint.Flip()
}

// fixationInstruction shows the target with a direction arrow until
// the participant is ready, offering recalibration at the wait point.
func (s *TrialSection) fixationInstruction(rt *Runtime) error {
	for {
		s.drawArrowAndTarget(rt)
		recalibrate, err := waitSignals(rt, true)
		if err != nil {
			return err
		}
		if !recalibrate {
			break
		}
		if cal, ok := rt.Tracker.(Calibrator); ok {
			fmt.Println("Recalibrating...")
			rt.Paint.Clear()
			rt.Paint.Flip()
			if err := cal.Calibrate(); err != nil {
				fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
			}
		}
	}
	// Remove the arrow, then wait once more to start the trial.
	rt.Paint.Clear()
	s.drawInstructionTarget()
	rt.Paint.Flip()
	return waitContinue(rt)
}

// moveTarget drives the trial loop against the real collaborators.
// It is the only place that couples the loop to the display refresh.
func (s *TrialSection) moveTarget(rt *Runtime, overlay string) ([]Row, error) {
	if err := rt.Tracker.StartTrial(s.Meta.TrialNumber); err != nil {
		fmt.Fprintf(os.Stderr, "Could not start recording for %s: %v\n", s.SectionName, err)
		if aerr := rt.Tracker.AbortTrial(); aerr != nil {
			fmt.Fprintf(os.Stderr, "Abort failed: %v\n", aerr)
		}
		return nil, fmt.Errorf("%s: %w", s.SectionName, ErrTrialAborted)
	}

	overlayPos := Point{Y: float64(rt.Settings.Monitor.Resolution[1]) / 4}
	trialClock := rt.NewTrialClock()
	rt.Input.ClearSignals()
	for {
		trialTime := trialClock.Seconds()
		if s.loop.Done(trialTime) {
			break
		}
		s.loop.Advance(rt.ExperimentClock.Seconds(), trialTime)
		rt.Paint.Clear()
		s.stim.Draw()
		if overlay != "" {
			rt.Paint.DrawText(overlay, overlayPos)
		}
		rt.Paint.Flip()

		rt.Input.Poll()
		if rt.Input.CancelRequested() {
			return nil, fmt.Errorf("%s: %w", s.SectionName, ErrCancelled)
		}
		rt.Input.ClearSignals()
	}

	// One forced final update so jump-style targets end exactly on
	// the terminal position.
	s.loop.Finish(rt.ExperimentClock.Seconds(), trialClock.Seconds())
	rt.Paint.Clear()
	s.stim.Draw()
	if overlay != "" {
		rt.Paint.DrawText(overlay, overlayPos)
	}
	rt.Paint.Flip()
	rt.Paint.Wait(settleSeconds)

	if err := rt.Tracker.EndTrial(s.Meta.TrialNumber); err != nil {
		fmt.Fprintf(os.Stderr, "Could not stop recording for %s: %v\n", s.SectionName, err)
	}
	return s.loop.Rows(), nil
}

func (s *TrialSection) Run(rt *Runtime) ([]Row, error) {
	if err := s.initStimulus(rt); err != nil {
		return nil, err
	}
	if err := s.fixationInstruction(rt); err != nil {
		return nil, err
	}
	return s.moveTarget(rt, "")
}

// TutorialSection walks the participant through one slow
// horizontal-right trial with step-by-step overlay text.
type TutorialSection struct {
	TrialSection
}

func NewTutorialSection(meta RowMeta) *TutorialSection {
	meta.TargetType = "moving_circle"
	meta.TargetTrajectory = "hor_right"
	meta.TargetSpeed = 2
	meta.TrialNumber = 0
	return &TutorialSection{TrialSection: TrialSection{SectionName: "Tutorial", Meta: meta}}
}

func (s *TutorialSection) step(rt *Runtime, text string, withArrow bool) error {
	rt.Paint.Clear()
	if withArrow {
		if off, ok := arrowOffsets[s.Meta.TargetTrajectory]; ok {
			start := Point{X: s.startPos.X + off.X, Y: s.startPos.Y + off.Y}
			rt.Paint.DrawArrow(start, s.Meta.TargetTrajectory, 100)
		}
	}
	s.drawInstructionTarget()
	rt.Paint.DrawText(text, Point{Y: float64(rt.Settings.Monitor.Resolution[1]) / 4})
	rt.Paint.Flip()
	return waitContinue(rt)
}

func (s *TutorialSection) Run(rt *Runtime) ([]Row, error) {
	if err := s.initStimulus(rt); err != nil {
		return nil, err
	}
	steps := rt.Settings.Tutorial
	if len(steps) < 6 {
		return nil, fmt.Errorf("tutorial: expected 6 instruction steps, got %d", len(steps))
	}
	if err := s.step(rt, steps[0], false); err != nil {
		return nil, err
	}
	if err := s.step(rt, steps[1], true); err != nil {
		return nil, err
	}
	if err := s.step(rt, steps[2], true); err != nil {
		return nil, err
	}
	if err := s.step(rt, steps[3], false); err != nil {
		return nil, err
	}
	rows, err := s.moveTarget(rt, steps[4])
	if err != nil {
		return nil, err
	}
	if err := s.step(rt, steps[5], true); err != nil {
		return nil, err
	}
	return rows, nil
}
