package engine

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
)

var namedColors = map[string]sdl.Color{
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {R: 0, G: 0, B: 0, A: 255},
	"gray":  {R: 128, G: 128, B: 128, A: 255},
	"red":   {R: 255, G: 0, B: 0, A: 255},
	"green": {R: 0, G: 150, B: 0, A: 255},
	"blue":  {R: 0, G: 120, B: 255, A: 255},
}

// ParseColor resolves a color name or an "R,G,B,A" string.
func ParseColor(s string) sdl.Color {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	var r, g, b, a uint8
	fmt.Sscanf(s, "%d,%d,%d,%d", &r, &g, &b, &a)
	if a == 0 && s != "" && !strings.Contains(s, ",0") {
		a = 255
	}
	return sdl.Color{R: r, G: g, B: b, A: a}
}

var keycodes = map[string]sdl.Keycode{
	"space":  sdl.K_SPACE,
	"escape": sdl.K_ESCAPE,
	"return": sdl.K_RETURN,
	"tab":    sdl.K_TAB,
	"c":      sdl.K_C,
	"q":      sdl.K_Q,
	"r":      sdl.K_R,
	"s":      sdl.K_S,
}

func lookupKey(name string) (sdl.Keycode, error) {
	k, ok := keycodes[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("display: unknown control key %q", name)
	}
	return k, nil
}

// Display owns the SDL window and renderer and implements the
// Painter, Visuals and Input collaborators. Engine math stays in
// centered coordinates (y up); Display translates to device
// coordinates when drawing.
type Display struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font

	width, height int
	bg            sdl.Color
	textColor     sdl.Color
	textHeight    float64

	continueKey sdl.Keycode
	quitKey     sdl.Keycode
	recalKey    sdl.Keycode

	cancel      bool
	cont        bool
	recalibrate bool
}

// NewDisplay initializes SDL and opens the experiment window. The
// caller must hold the main OS thread.
func NewDisplay(cfg *Settings) (*Display, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("display: SDL init: %w", err)
	}
	if err := ttf.Init(); err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("display: TTF init: %w", err)
	}

	d := &Display{
		width:      cfg.Monitor.Resolution[0],
		height:     cfg.Monitor.Resolution[1],
		bg:         namedColors["black"],
		textColor:  ParseColor(cfg.Text.Color),
		textHeight: cfg.Text.Height,
	}

	var err error
	if d.continueKey, err = lookupKey(cfg.Controls.Continue); err != nil {
		return nil, err
	}
	if d.quitKey, err = lookupKey(cfg.Controls.Quit); err != nil {
		return nil, err
	}
	if d.recalKey, err = lookupKey(cfg.Controls.Recalibrate); err != nil {
		return nil, err
	}

	windowFlags := sdl.WINDOW_RESIZABLE
	if cfg.Fullscreen {
		windowFlags |= sdl.WINDOW_FULLSCREEN
	}
	d.window, d.renderer, err = sdl.CreateWindowAndRenderer("pursuit", d.width, d.height, windowFlags)
	if err != nil {
		ttf.Quit()
		sdl.Quit()
		return nil, fmt.Errorf("display: CreateWindowAndRenderer: %w", err)
	}
	d.renderer.SetVSync(1)

	fontPath := defaultFontPath()
	if fontPath != "" {
		d.font, err = ttf.OpenFont(fontPath, float32(cfg.Text.Height))
		if err != nil {
			fmt.Printf("Failed to load font %s: %v\n", fontPath, err)
			d.font = nil
		}
	}
	return d, nil
}

func (d *Display) Close() {
	if d.font != nil {
		d.font.Close()
	}
	if d.renderer != nil {
		d.renderer.Destroy()
	}
	if d.window != nil {
		d.window.Destroy()
	}
	ttf.Quit()
	sdl.Quit()
}

// RefreshRate reports the current display mode's refresh rate, or 0
// when unavailable.
func (d *Display) RefreshRate() float64 {
	display := sdl.GetDisplayForWindow(d.window)
	mode, err := display.CurrentDisplayMode()
	if err != nil || mode.RefreshRate <= 0 {
		return 0
	}
	return float64(mode.RefreshRate)
}

func (d *Display) toDevice(p Point) (float32, float32) {
	return float32(d.width)/2 + float32(p.X), float32(d.height)/2 - float32(p.Y)
}

func (d *Display) Clear() {
	d.renderer.SetDrawColor(d.bg.R, d.bg.G, d.bg.B, d.bg.A)
	d.renderer.Clear()
}

// Flip presents the frame. With vsync enabled this blocks until the
// next refresh, which is the loop's frame-boundary wait.
func (d *Display) Flip() {
	d.renderer.Present()
}

func (d *Display) Wait(seconds float64) {
	sdl.Delay(uint32(seconds * 1000))
}

func (d *Display) DrawText(text string, pos Point) {
	if d.font == nil {
		return
	}
	lines := strings.Split(text, "\n")
	lineH := float32(d.textHeight) * 1.3
	cx, cy := d.toDevice(pos)
	top := cy - lineH*float32(len(lines))/2
	for i, line := range lines {
		if line == "" {
			continue
		}
		surf, err := d.font.RenderTextBlended(line, d.textColor)
		if err != nil || surf == nil {
			continue
		}
		tex, err := d.renderer.CreateTextureFromSurface(surf)
		if err == nil {
			r := sdl.FRect{
				X: cx - float32(surf.W)/2,
				Y: top + lineH*float32(i),
				W: float32(surf.W),
				H: float32(surf.H),
			}
			d.renderer.RenderTexture(tex, nil, &r)
			tex.Destroy()
		}
		surf.Destroy()
	}
}

// arrow geometry relative to the movement direction
var arrowDirs = map[string]Point{
	"hor_right":       {X: 1},
	"hor_left":        {X: -1},
	"ver_up":          {Y: 1},
	"ver_down":        {Y: -1},
	"diag_up_right":   {X: 1, Y: 1},
	"diag_up_left":    {X: -1, Y: 1},
	"diag_down_right": {X: 1, Y: -1},
	"diag_down_left":  {X: -1, Y: -1},
}

// DrawArrow draws a direction arrow for the fixation instruction.
// Circular trajectories have no arrow.
func (d *Display) DrawArrow(start Point, trajectory string, length float64) {
	dir, ok := arrowDirs[trajectory]
	if !ok {
		return
	}
	end := Point{X: start.X + dir.X*length, Y: start.Y + dir.Y*length}
	tipLen := 0.3 * length
	tipWid := 0.1 * length

	// Unit vector along the shaft and its normal.
	mag := math.Hypot(dir.X, dir.Y)
	ux, uy := dir.X/mag, dir.Y/mag
	nx, ny := -uy, ux

	left := Point{X: end.X - ux*tipLen + nx*tipWid, Y: end.Y - uy*tipLen + ny*tipWid}
	right := Point{X: end.X - ux*tipLen - nx*tipWid, Y: end.Y - uy*tipLen - ny*tipWid}

	c := namedColors["white"]
	d.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	x1, y1 := d.toDevice(start)
	x2, y2 := d.toDevice(end)
	d.renderer.RenderLine(x1, y1, x2, y2)
	lx, ly := d.toDevice(left)
	rx, ry := d.toDevice(right)
	d.renderer.RenderLine(x2, y2, lx, ly)
	d.renderer.RenderLine(x2, y2, rx, ry)
}

func (d *Display) fillCircle(center Point, radius float64, c sdl.Color) {
	d.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	cx, cy := d.toDevice(center)
	r := float32(radius)
	for dy := -r; dy <= r; dy++ {
		dx := float32(math.Sqrt(float64(r*r - dy*dy)))
		d.renderer.RenderLine(cx-dx, cy+dy, cx+dx, cy+dy)
	}
}

// circleTarget is the single-drawable target. Orientation is stored
// for completeness; a filled circle renders the same at any angle.
type circleTarget struct {
	d      *Display
	radius float64
	fill   sdl.Color
	pos    Point
	ori    float64
}

func (t *circleTarget) SetPosition(p Point)        { t.pos = p }
func (t *circleTarget) SetOrientation(deg float64) { t.ori = deg }
func (t *circleTarget) Draw()                      { t.d.fillCircle(t.pos, t.radius, t.fill) }

func (d *Display) NewCircleTarget(radius float64, fillColor, lineColor string) Target {
	return &circleTarget{d: d, radius: radius, fill: ParseColor(fillColor)}
}

// elementField renders n elements at offsets relative to a moving
// field center. Fields with more than one element start with random
// positions inside the circular field area.
type elementField struct {
	d           *Display
	size        Point
	elementSize float64
	color       sdl.Color
	fieldPos    Point
	offsets     []Point
	opacities   []float64
}

func (f *elementField) SetFieldPos(p Point)        { f.fieldPos = p }
func (f *elementField) SetOffsets(offsets []Point) { f.offsets = offsets }
func (f *elementField) SetOpacities(ops []float64) { f.opacities = ops }
func (f *elementField) FieldSize() Point           { return f.size }

func (f *elementField) Draw() {
	for i, off := range f.offsets {
		if i < len(f.opacities) && f.opacities[i] == 0 {
			continue
		}
		p := Point{X: f.fieldPos.X + off.X, Y: f.fieldPos.Y + off.Y}
		f.d.fillCircle(p, f.elementSize/2, f.color)
	}
}

func (d *Display) NewElementField(fieldSize, elementSize float64, n int, color string) ElementField {
	f := &elementField{
		d:           d,
		size:        Point{X: fieldSize, Y: fieldSize},
		elementSize: elementSize,
		color:       ParseColor(color),
	}
	if n == 1 {
		f.offsets = []Point{{}}
	} else {
		// Random element positions within the circular field area.
		f.offsets = make([]Point, n)
		for i := range f.offsets {
			angle := rand.Float64() * 2 * math.Pi
			r := fieldSize * math.Sqrt(rand.Float64())
			f.offsets[i] = Point{X: r * math.Cos(angle), Y: r * math.Sin(angle)}
		}
	}
	return f
}

// Poll drains pending SDL events into the semantic signal state. The
// quit signal stays latched; continue and recalibrate are transient.
func (d *Display) Poll() {
	var ev sdl.Event
	for sdl.PollEvent(&ev) {
		switch ev.Type {
		case sdl.EVENT_QUIT:
			d.cancel = true
		case sdl.EVENT_KEY_DOWN:
			switch ev.KeyboardEvent().Key {
			case d.quitKey:
				d.cancel = true
			case d.continueKey:
				d.cont = true
			case d.recalKey:
				d.recalibrate = true
			}
		}
	}
}

func (d *Display) CancelRequested() bool      { return d.cancel }
func (d *Display) ContinueRequested() bool    { return d.cont }
func (d *Display) RecalibrateRequested() bool { return d.recalibrate }

func (d *Display) ClearSignals() {
	d.cont = false
	d.recalibrate = false
}
