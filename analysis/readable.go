package analysis

import "fmt"

var readableTypes = map[string]string{
	"moving_circle":        "Moving Circle (SP)",
	"jumping_circle":       "Jumping Circle (FIX-SAC)",
	"back_and_forth_array": "Back and Forth Circle (SP-SAC)",
	"swarm":                "Swarm (FIX)",
	"moving_swarm":         "Moving Swarm (SP)",
}

var readableTrajectories = map[string]string{
	"hor_right":       "Horizontal Right →",
	"hor_left":        "Horizontal Left ←",
	"ver_up":          "Vertical Up ↑",
	"ver_down":        "Vertical Down ↓",
	"diag_up_left":    "Diagonal Up Left ↖",
	"diag_up_right":   "Diagonal Up Right ↗",
	"diag_down_left":  "Diagonal Down Left ↙",
	"diag_down_right": "Diagonal Down Right ↘",
	"cir_clock":       "Circular Clockwise ↻",
	"cir_counter":     "Circular Counterclockwise ↺",
}

// ReadableType maps a target type name to its plot label. Unknown
// names pass through unchanged.
func ReadableType(t string) string {
	if r, ok := readableTypes[t]; ok {
		return r
	}
	return t
}

func ReadableTrajectory(t string) string {
	if r, ok := readableTrajectories[t]; ok {
		return r
	}
	return t
}

func ReadableSpeed(speed float64) string {
	return fmt.Sprintf("%g°/s", speed)
}
