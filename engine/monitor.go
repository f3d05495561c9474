package engine

import (
	"fmt"
	"math"
)

// Monitor describes the physical geometry of the stimulus display.
// Distance and Height are in the same physical unit (cm); Resolution
// is horizontal x vertical pixels.
type Monitor struct {
	Distance    float64 `yaml:"distance"`
	Height      float64 `yaml:"height"`
	Width       float64 `yaml:"width"`
	Resolution  [2]int  `yaml:"resolution"`
	RefreshRate float64 `yaml:"refresh_rate"`
}

func (m Monitor) Validate() error {
	if !(m.Distance > 0) || math.IsInf(m.Distance, 0) {
		return fmt.Errorf("monitor: distance must be a positive number, got %v", m.Distance)
	}
	if !(m.Height > 0) || math.IsInf(m.Height, 0) {
		return fmt.Errorf("monitor: height must be a positive number, got %v", m.Height)
	}
	if m.Resolution[0] <= 0 || m.Resolution[1] <= 0 {
		return fmt.Errorf("monitor: resolution must be positive, got %dx%d", m.Resolution[0], m.Resolution[1])
	}
	if !(m.RefreshRate > 0) || math.IsInf(m.RefreshRate, 0) {
		return fmt.Errorf("monitor: refresh rate must be a positive number, got %v", m.RefreshRate)
	}
	return nil
}

// halfScreenDeg is the visual angle subtended by half the screen height.
func (m Monitor) halfScreenDeg() float64 {
	return degrees(math.Atan2(0.5*m.Height, m.Distance))
}

// DegToPx converts a size in degrees of visual angle to pixels.
func (m Monitor) DegToPx(deg float64) float64 {
	return deg / m.halfScreenDeg() * (0.5 * float64(m.Resolution[1]))
}

// PxToDeg converts a size in pixels to degrees of visual angle.
func (m Monitor) PxToDeg(px float64) float64 {
	return m.halfScreenDeg() / (0.5 * float64(m.Resolution[1])) * px
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func radians(deg float64) float64 { return deg * math.Pi / 180 }
