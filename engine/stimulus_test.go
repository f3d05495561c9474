package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateGate(t *testing.T) {
	g := updateGate{every: 3}
	var fired []int
	for frame := 1; frame <= 10; frame++ {
		if g.fires(frame, false) {
			fired = append(fired, frame)
		}
	}
	assert.Equal(t, []int{1, 3, 6, 9}, fired)
	assert.True(t, g.fires(11, true))

	never := updateGate{every: 0}
	assert.False(t, never.fires(1, false))
	assert.False(t, never.fires(1, true))
}

func TestMovingCircleUpdatesEveryFrame(t *testing.T) {
	tr, err := NewHorizontalTrajectory(400, "right")
	require.NoError(t, err)
	target := &fakeTarget{}
	stim, err := NewMovingCircle(target, Point{X: -200}, 100, tr)
	require.NoError(t, err)

	assert.Equal(t, Point{X: -200}, target.pos)
	assert.Equal(t, Point{X: -200}, stim.StartPosition())

	p := stim.Update(UpdateParams{Time: 1, Frame: 1})
	assert.InDelta(t, -100, p.X, 1e-9)
	assert.InDelta(t, -100, target.pos.X, 1e-9)

	p = stim.Update(UpdateParams{Time: 2, Frame: 2})
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.False(t, stim.Finalized())

	p = stim.Update(UpdateParams{Time: 4, Frame: 3, Final: true})
	assert.InDelta(t, 200, p.X, 1e-9)
	assert.True(t, stim.Finalized())
}

func TestJumpingCircleHoldsBetweenJumps(t *testing.T) {
	tr, err := NewHorizontalTrajectory(400, "right")
	require.NoError(t, err)
	target := &fakeTarget{}
	stim, err := NewJumpingCircle(target, Point{X: -200}, 100, tr, 3)
	require.NoError(t, err)

	// Frame 1 fires, frame 2 holds, frame 3 fires.
	p1 := stim.Update(UpdateParams{Time: 0.1, Frame: 1})
	assert.InDelta(t, -190, p1.X, 1e-9)

	p2 := stim.Update(UpdateParams{Time: 0.2, Frame: 2})
	assert.InDelta(t, p1.X, p2.X, 1e-9)

	p3 := stim.Update(UpdateParams{Time: 0.3, Frame: 3})
	assert.InDelta(t, -170, p3.X, 1e-9)

	// The forced final update lands on the terminal position even
	// though frame 4 is not a multiple of 3.
	p4 := stim.Update(UpdateParams{Time: 4, Frame: 4, Final: true})
	assert.InDelta(t, 200, p4.X, 1e-9)
	assert.True(t, stim.Finalized())
}

func TestJumpingCircleNeverUpdatesAtZeroFrequency(t *testing.T) {
	tr, err := NewHorizontalTrajectory(400, "right")
	require.NoError(t, err)
	target := &fakeTarget{}
	stim, err := NewJumpingCircle(target, Point{X: -200}, 100, tr, 0)
	require.NoError(t, err)

	for frame := 1; frame <= 5; frame++ {
		p := stim.Update(UpdateParams{Time: float64(frame), Frame: frame})
		assert.InDelta(t, -200, p.X, 1e-9)
		assert.False(t, stim.Finalized())
	}
	// The position stays put but the final update still finalizes.
	p := stim.Update(UpdateParams{Time: 6, Frame: 6, Final: true})
	assert.InDelta(t, -200, p.X, 1e-9)
	assert.True(t, stim.Finalized())
}

func TestBackAndForthArrayTogglesTangentOffset(t *testing.T) {
	tr, err := NewHorizontalTrajectory(400, "right")
	require.NoError(t, err)
	field := &fakeField{size: Point{X: 30, Y: 30}}
	stim, err := NewBackAndForthArray(field, Point{X: -200}, 100, tr, 2)
	require.NoError(t, err)

	require.Len(t, field.offsetLog, 1)
	assert.Equal(t, []Point{{}}, field.offsetLog[0])

	// Frame 1 fires: offset behind the movement direction first.
	p1 := stim.Update(UpdateParams{Time: 0.1, Frame: 1})
	require.Len(t, field.offsetLog, 2)
	assert.Equal(t, []Point{{X: -30}}, field.offsetLog[1])
	assert.InDelta(t, -190-30, p1.X, 1e-9)

	// Frame 2 fires again: toggled ahead.
	p2 := stim.Update(UpdateParams{Time: 0.2, Frame: 2})
	assert.Equal(t, []Point{{X: 30}}, field.offsetLog[2])
	assert.InDelta(t, -180+30, p2.X, 1e-9)

	// Frame 3 holds the offset while the field keeps moving.
	p3 := stim.Update(UpdateParams{Time: 0.3, Frame: 3})
	require.Len(t, field.offsetLog, 3)
	assert.InDelta(t, -170+30, p3.X, 1e-9)
}

func TestBackAndForthCircularOffsetFollowsTangent(t *testing.T) {
	m := testMonitor()
	tr, err := NewCircularTrajectory(200, "counterclockwise", 0, m)
	require.NoError(t, err)
	field := &fakeField{size: Point{X: 30, Y: 30}}
	stim, err := NewBackAndForthArray(field, Point{X: 200}, 90, tr, 1)
	require.NoError(t, err)

	// At angle 0 the tangent points straight up, so the offset is
	// vertical.
	stim.Update(UpdateParams{Time: 0, Frame: 1})
	off := field.offsets[0]
	assert.InDelta(t, 0, off.X, 1e-6)
	assert.InDelta(t, 30, math.Abs(off.Y), 1e-6)
}

func TestSwarmShowsExactlyNActive(t *testing.T) {
	field := &fakeField{size: Point{X: 60, Y: 60}}
	rng := rand.New(rand.NewSource(7))
	stim, err := NewSwarmStimulus(field, Point{}, 20, 5, 2, rng)
	require.NoError(t, err)

	countActive := func(ops []float64) int {
		n := 0
		for _, o := range ops {
			if o == 1 {
				n++
			}
		}
		return n
	}

	// Initial placement already resamples once.
	require.Len(t, field.opacityLog, 1)
	assert.Equal(t, 5, countActive(field.opacityLog[0]))
	assert.Len(t, field.opacityLog[0], 20)

	stim.Update(UpdateParams{Time: 0.1, Frame: 1})
	stim.Update(UpdateParams{Time: 0.2, Frame: 2})
	stim.Update(UpdateParams{Time: 0.3, Frame: 3})
	// Frames 1 and 2 fire, frame 3 does not.
	require.Len(t, field.opacityLog, 3)
	for _, ops := range field.opacityLog {
		assert.Equal(t, 5, countActive(ops))
	}

	// The field itself does not move.
	p := stim.Update(UpdateParams{Time: 0.4, Frame: 4})
	assert.Equal(t, Point{}, p)
}

func TestMovingSwarmFieldTravels(t *testing.T) {
	tr, err := NewHorizontalTrajectory(400, "right")
	require.NoError(t, err)
	field := &fakeField{size: Point{X: 60, Y: 60}}
	stim, err := NewMovingSwarm(field, Point{X: -200}, 20, 5, 2, 100, tr, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	p := stim.Update(UpdateParams{Time: 1, Frame: 1})
	assert.InDelta(t, -100, p.X, 1e-9)
	assert.InDelta(t, -100, field.fieldPos.X, 1e-9)
}

func TestStimulusConstructionErrors(t *testing.T) {
	tr, err := NewHorizontalTrajectory(400, "right")
	require.NoError(t, err)

	_, err = NewMovingCircle(nil, Point{}, 100, tr)
	assert.Error(t, err)

	_, err = NewMovingCircle(&fakeTarget{}, Point{}, 100, nil)
	assert.Error(t, err)

	_, err = NewJumpingCircle(&fakeTarget{}, Point{}, 100, tr, -1)
	assert.Error(t, err)

	_, err = NewBackAndForthArray(nil, Point{}, 100, tr, 2)
	assert.Error(t, err)

	_, err = NewSwarmStimulus(&fakeField{}, Point{}, 0, 0, 2, nil)
	assert.Error(t, err)

	_, err = NewSwarmStimulus(&fakeField{}, Point{}, 10, 11, 2, nil)
	assert.Error(t, err)
}
