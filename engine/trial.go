package engine

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the operator issues the quit signal
// during a trial or at a wait point. It is fatal: the session runs
// its teardown path and stops.
var ErrCancelled = errors.New("session cancelled")

// ErrTrialAborted marks a trial the tracking link could not record.
// The session logs it and moves on to the next section.
var ErrTrialAborted = errors.New("trial aborted")

// TrackerLink is the recording-control interface of the eye-tracking
// device. Calls are synchronous round-trips and order-sensitive:
// StartTrial before any markers, EndTrial after the final frame.
type TrackerLink interface {
	StartTrial(trialNumber int) error
	EndTrial(trialNumber int) error
	AbortTrial() error
	SendMarker(text string) error
	EndSession() error
}

// Calibrator is implemented by tracker links that support operator
// recalibration between trials.
type Calibrator interface {
	Calibrate() error
}

// RequiredSeconds computes how long a trial's motion phase must run.
// Linear trajectories travel a fixed distance at the given angular
// speed, capped at maxSeconds; circular trajectories complete one
// full rotation at the angular speed instead.
func RequiredSeconds(mon Monitor, kind TrajectoryKind, speedDeg, movingDistanceDeg, maxSeconds float64) (float64, error) {
	if !(speedDeg > 0) {
		return 0, fmt.Errorf("trial: target speed must be positive, got %v", speedDeg)
	}
	if kind == KindCircular {
		return 360 / speedDeg, nil
	}
	sec := mon.DegToPx(movingDistanceDeg) / mon.DegToPx(speedDeg)
	if sec > maxSeconds {
		sec = maxSeconds
	}
	return sec, nil
}

// TrialLoop is the frame-synchronous core of one trial's motion
// phase, expressed as an explicit step object so it can be driven by
// a real display or directly by tests. It owns no clock and writes no
// files: the driver feeds it clock readings and collects the rows.
type TrialLoop struct {
	stim       Stimulus
	meta       RowMeta
	reqSec     float64
	timeOffset float64
	frame      int
	rows       []Row
	finished   bool
}

func NewTrialLoop(stim Stimulus, meta RowMeta, reqSec, timeOffset float64) *TrialLoop {
	return &TrialLoop{stim: stim, meta: meta, reqSec: reqSec, timeOffset: timeOffset}
}

// Done reports whether the motion phase is over at the given trial
// time.
func (l *TrialLoop) Done(trialTime float64) bool {
	return trialTime >= l.reqSec
}

// Advance performs one regular frame: it increments the frame
// counter, updates the stimulus and appends a data row keyed by the
// two clock readings.
func (l *TrialLoop) Advance(expTime, trialTime float64) Row {
	l.frame++
	pos := l.stim.Update(UpdateParams{Time: trialTime + l.timeOffset, Frame: l.frame})
	row := Row{
		RowMeta:        l.meta,
		ExperimentTime: expTime,
		TrialTime:      trialTime,
		TargetX:        pos.X,
		TargetY:        pos.Y,
	}
	l.rows = append(l.rows, row)
	return row
}

// Finish issues the single forced final update. The stimulus is
// evaluated at exactly the required duration so jump-style targets
// land on the analytic terminal position regardless of frame-count
// rounding; the row still records the actual clock readings.
func (l *TrialLoop) Finish(expTime, trialTime float64) Row {
	pos := l.stim.Update(UpdateParams{Time: l.reqSec + l.timeOffset, Frame: l.frame, Final: true})
	l.finished = true
	row := Row{
		RowMeta:        l.meta,
		ExperimentTime: expTime,
		TrialTime:      trialTime,
		TargetX:        pos.X,
		TargetY:        pos.Y,
	}
	l.rows = append(l.rows, row)
	return row
}

// Rows returns the accumulated frame log, ordered by frame index.
func (l *TrialLoop) Rows() []Row { return l.rows }

func (l *TrialLoop) Frame() int { return l.frame }

func (l *TrialLoop) Finished() bool { return l.finished }

func (l *TrialLoop) RequiredSeconds() float64 { return l.reqSec }
