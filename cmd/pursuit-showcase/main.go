// Runs a single trial of any stimulus combination for demonstration,
// with a dummy tracker. Data goes to a showcase directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"

	"github.com/lukekorthals/pursuing-smooth-pursuits-experiment/engine"
	"github.com/lukekorthals/pursuing-smooth-pursuits-experiment/tracker"
)

func init() {
	runtime.LockOSThread()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	defer binsdl.Load().Unload()
	defer binttf.Load().Unload()

	settingsFile := flag.String("settings", "", "YAML settings file")
	targetType := flag.String("type", "moving_circle", "Target type")
	trajectory := flag.String("trajectory", "hor_right", "Target trajectory")
	speed := flag.Float64("speed", 3, "Target speed in degrees per second")
	windowed := flag.Bool("windowed", false, "Run in a window instead of fullscreen")
	flag.Parse()

	settings, err := engine.LoadSettings(*settingsFile)
	if err != nil {
		fatal("Settings: %v", err)
	}
	if *windowed {
		settings.Fullscreen = false
	}

	display, err := engine.NewDisplay(settings)
	if err != nil {
		fatal("Display: %v", err)
	}
	defer display.Close()

	if hz := display.RefreshRate(); hz > 0 {
		settings.Monitor.RefreshRate = hz
	}

	rt := &engine.Runtime{
		Settings:        settings,
		Paint:           display,
		Visuals:         display,
		Input:           display,
		Tracker:         tracker.NewDummy(),
		ExperimentClock: engine.NewClock(),
		NewTrialClock:   engine.NewClock,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	section := &engine.TrialSection{
		SectionName: "Showcase",
		Meta: engine.RowMeta{
			ExperimentName:   "stimulus_showcase",
			ParticipantID:    "showcase",
			Section:          "Showcase",
			TrialNumber:      1,
			TargetType:       *targetType,
			TargetSpeed:      *speed,
			TargetTrajectory: *trajectory,
			TargetRadius:     settings.Targets.Radius,
			TargetColor:      settings.Targets.FillColor,
		},
	}

	rows, err := section.Run(rt)
	if err != nil {
		if errors.Is(err, engine.ErrCancelled) {
			fmt.Println("Showcase cancelled")
			return
		}
		fatal("Showcase: %v", err)
	}

	dir := filepath.Join(settings.DataPath, "showcase")
	store, err := engine.NewDataStore(dir, "showcase")
	if err != nil {
		fatal("Data store: %v", err)
	}
	if err := store.WriteRows(rows); err != nil {
		fatal("Writing rows: %v", err)
	}
	fmt.Printf("Showcase data written to %s\n", dir)
}
