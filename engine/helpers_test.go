package engine

import "errors"

// Shared test doubles for the display, input, clock and tracker
// collaborators.

var errTrackerDown = errors.New("tracker down")

type fakeTarget struct {
	pos         Point
	orientation float64
	positions   []Point
	draws       int
}

func (t *fakeTarget) SetPosition(p Point) {
	t.pos = p
	t.positions = append(t.positions, p)
}
func (t *fakeTarget) SetOrientation(deg float64) { t.orientation = deg }
func (t *fakeTarget) Draw()                      { t.draws++ }

type fakeField struct {
	size      Point
	fieldPos  Point
	offsets   []Point
	opacities []float64

	fieldPosLog [][2]float64
	offsetLog   [][]Point
	opacityLog  [][]float64
	draws       int
}

func (f *fakeField) SetFieldPos(p Point) {
	f.fieldPos = p
	f.fieldPosLog = append(f.fieldPosLog, [2]float64{p.X, p.Y})
}
func (f *fakeField) SetOffsets(offsets []Point) {
	f.offsets = offsets
	f.offsetLog = append(f.offsetLog, offsets)
}
func (f *fakeField) SetOpacities(ops []float64) {
	f.opacities = ops
	f.opacityLog = append(f.opacityLog, ops)
}
func (f *fakeField) FieldSize() Point { return f.size }
func (f *fakeField) Draw()           { f.draws++ }

type fakePainter struct {
	clears int
	flips  int
	texts  []string
	arrows int
}

func (p *fakePainter) Clear()       { p.clears++ }
func (p *fakePainter) Flip()        { p.flips++ }
func (p *fakePainter) Wait(float64) {}
func (p *fakePainter) DrawText(text string, _ Point) {
	p.texts = append(p.texts, text)
}
func (p *fakePainter) DrawArrow(Point, string, float64) { p.arrows++ }

type fakeVisuals struct {
	targets []*fakeTarget
	fields  []*fakeField
}

func (v *fakeVisuals) NewCircleTarget(radius float64, fillColor, lineColor string) Target {
	t := &fakeTarget{}
	v.targets = append(v.targets, t)
	return t
}

func (v *fakeVisuals) NewElementField(fieldSize, elementSize float64, n int, color string) ElementField {
	f := &fakeField{size: Point{X: fieldSize, Y: fieldSize}}
	v.fields = append(v.fields, f)
	return f
}

// continueInput reports the continue signal on every poll, so wait
// points never block.
type continueInput struct {
	polls int
}

func (i *continueInput) Poll()                      { i.polls++ }
func (i *continueInput) CancelRequested() bool      { return false }
func (i *continueInput) ContinueRequested() bool    { return true }
func (i *continueInput) RecalibrateRequested() bool { return false }
func (i *continueInput) ClearSignals()              {}

// cancelAfterInput continues until a given number of polls have
// happened, then reports cancel.
type cancelAfterInput struct {
	after int
	polls int
}

func (i *cancelAfterInput) Poll()                      { i.polls++ }
func (i *cancelAfterInput) CancelRequested() bool      { return i.polls > i.after }
func (i *cancelAfterInput) ContinueRequested() bool    { return true }
func (i *cancelAfterInput) RecalibrateRequested() bool { return false }
func (i *cancelAfterInput) ClearSignals()              {}

// stepClock advances by a fixed step on every reading.
type stepClock struct {
	t    float64
	step float64
}

func (c *stepClock) Seconds() float64 {
	v := c.t
	c.t += c.step
	return v
}

func (c *stepClock) Reset() { c.t = 0 }

// fakeTracker records the call sequence and can fail StartTrial.
type fakeTracker struct {
	calls      []string
	failStart  bool
	endedCount int
}

func (t *fakeTracker) StartTrial(n int) error {
	t.calls = append(t.calls, "start")
	if t.failStart {
		return errTrackerDown
	}
	return nil
}
func (t *fakeTracker) EndTrial(n int) error {
	t.calls = append(t.calls, "end")
	return nil
}
func (t *fakeTracker) AbortTrial() error {
	t.calls = append(t.calls, "abort")
	return nil
}
func (t *fakeTracker) SendMarker(text string) error {
	t.calls = append(t.calls, "marker:"+text)
	return nil
}
func (t *fakeTracker) EndSession() error {
	t.calls = append(t.calls, "session-end")
	t.endedCount++
	return nil
}
