package engine

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetSettings describes the visual and motion parameters shared by
// all trial targets. MovingDistance is in degrees of visual angle.
type TargetSettings struct {
	Radius         float64 `yaml:"radius"`
	FillColor      string  `yaml:"fill_color"`
	LineColor      string  `yaml:"line_color"`
	MovingDistance float64 `yaml:"moving_distance"`
	MaxSeconds     float64 `yaml:"max_seconds"`
	JumpsPerSecond float64 `yaml:"jumps_per_second"`
}

type SwarmSettings struct {
	NElements   int     `yaml:"n_elements"`
	NActive     int     `yaml:"n_active"`
	ElementSize float64 `yaml:"element_size"`
}

type TextSettings struct {
	Height float64 `yaml:"height"`
	Color  string  `yaml:"color"`
}

// TrialPlan is the factorial design: every speed block contains all
// trajectory x type combinations, repeated Repetitions times.
type TrialPlan struct {
	Repetitions        int       `yaml:"repetitions"`
	TargetTypes        []string  `yaml:"target_types"`
	TargetSpeeds       []float64 `yaml:"target_speeds"`
	TargetTrajectories []string  `yaml:"target_trajectories"`
}

// Controls maps the semantic signals to key names. The core only
// consumes the signals; the display layer resolves key codes.
type Controls struct {
	Continue    string `yaml:"continue"`
	Quit        string `yaml:"quit"`
	Recalibrate string `yaml:"recalibrate"`
}

type TrackerSettings struct {
	Address         string `yaml:"address"`
	DummyMode       bool   `yaml:"dummy_mode"`
	TriggerDevice   string `yaml:"trigger_device"`
	SampleRate      int    `yaml:"sample_rate"`
	CalibrationType string `yaml:"calibration_type"`
	CalibrationText string `yaml:"calibration_text"`
}

// Settings is the process-wide, read-only configuration. It is
// loaded and validated once at startup and passed into components at
// construction; nothing reads it ambiently.
type Settings struct {
	ExperimentName string          `yaml:"experiment_name"`
	DataPath       string          `yaml:"data_path"`
	Fullscreen     bool            `yaml:"fullscreen"`
	Monitor        Monitor         `yaml:"monitor"`
	Targets        TargetSettings  `yaml:"targets"`
	Swarm          SwarmSettings   `yaml:"swarm"`
	Text           TextSettings    `yaml:"text"`
	Trials         TrialPlan       `yaml:"trials"`
	Tutorial       []string        `yaml:"tutorial"`
	Controls       Controls        `yaml:"controls"`
	Tracker        TrackerSettings `yaml:"tracker"`
}

func DefaultSettings() *Settings {
	return &Settings{
		ExperimentName: "sp_experiment",
		DataPath:       "data",
		Fullscreen:     true,
		Monitor: Monitor{
			Distance:    60,
			Height:      29.5,
			Width:       52.5,
			Resolution:  [2]int{1920, 1080},
			RefreshRate: 60,
		},
		Targets: TargetSettings{
			Radius:         30,
			FillColor:      "white",
			LineColor:      "white",
			MovingDistance: 16,
			MaxSeconds:     10,
			JumpsPerSecond: 2,
		},
		Swarm: SwarmSettings{
			NElements:   100,
			NActive:     10,
			ElementSize: 10,
		},
		Text: TextSettings{
			Height: 24,
			Color:  "white",
		},
		Trials: TrialPlan{
			Repetitions:  2,
			TargetTypes:  []string{"moving_circle", "jumping_circle", "back_and_forth_array"},
			TargetSpeeds: []float64{1, 3, 6},
			TargetTrajectories: []string{
				"hor_right", "hor_left", "ver_up", "ver_down",
				"diag_up_right", "diag_up_left", "diag_down_right", "diag_down_left",
				"cir_clock", "cir_counter",
			},
		},
		Tutorial: []string{
			"This is the target. During the experiment it will appear at different positions on the screen.",
			"An arrow next to the target shows the direction it will move in.",
			"Press the continue key to remove the arrow.",
			"Fixate the target and press the continue key again to start the trial.",
			"Follow the target with your eyes as closely as you can.",
			"Well done. This is how every trial works. Press the continue key to begin.",
		},
		Controls: Controls{
			Continue:    "space",
			Quit:        "escape",
			Recalibrate: "c",
		},
		Tracker: TrackerSettings{
			Address:         "100.1.1.1:5000",
			DummyMode:       true,
			SampleRate:      1000,
			CalibrationType: "HV9",
			CalibrationText: "The eye tracker will now be calibrated. Follow the dot with your eyes. Press the continue key to start.",
		},
	}
}

// LoadSettings reads a YAML settings file over the defaults. An empty
// path returns the validated defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("settings: parsing %s: %w", path, err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if err := s.Monitor.Validate(); err != nil {
		return err
	}
	if !(s.Targets.Radius > 0) {
		return fmt.Errorf("settings: target radius must be positive, got %v", s.Targets.Radius)
	}
	if !(s.Targets.MovingDistance > 0) || math.IsInf(s.Targets.MovingDistance, 0) {
		return fmt.Errorf("settings: moving distance must be positive, got %v", s.Targets.MovingDistance)
	}
	if !(s.Targets.MaxSeconds > 0) {
		return fmt.Errorf("settings: max seconds must be positive, got %v", s.Targets.MaxSeconds)
	}
	if !(s.Targets.JumpsPerSecond > 0) {
		return fmt.Errorf("settings: jumps per second must be positive, got %v", s.Targets.JumpsPerSecond)
	}
	if s.Swarm.NActive > s.Swarm.NElements {
		return fmt.Errorf("settings: swarm n_active %d exceeds n_elements %d", s.Swarm.NActive, s.Swarm.NElements)
	}
	if s.Trials.Repetitions < 1 {
		return fmt.Errorf("settings: repetitions must be at least 1, got %d", s.Trials.Repetitions)
	}
	for _, speed := range s.Trials.TargetSpeeds {
		if !(speed > 0) {
			return fmt.Errorf("settings: target speeds must be positive, got %v", speed)
		}
	}
	return nil
}

// JumpFrames converts jumps-per-second into an update frequency in
// frames at the configured refresh rate.
func (s *Settings) JumpFrames() int {
	return int(math.Round(s.Monitor.RefreshRate / s.Targets.JumpsPerSecond))
}
