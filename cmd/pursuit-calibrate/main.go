// Runs the tracker calibration without the experiment.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
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
	windowed := flag.Bool("windowed", false, "Run in a window instead of fullscreen")
	dummy := flag.Bool("dummy", false, "Force dummy tracker mode")
	flag.Parse()

	settings, err := engine.LoadSettings(*settingsFile)
	if err != nil {
		fatal("Settings: %v", err)
	}
	if *windowed {
		settings.Fullscreen = false
	}
	if *dummy {
		settings.Tracker.DummyMode = true
	}

	display, err := engine.NewDisplay(settings)
	if err != nil {
		fatal("Display: %v", err)
	}
	defer display.Close()

	var link engine.TrackerLink
	if settings.Tracker.DummyMode {
		link = tracker.NewDummy()
	} else {
		if err := os.MkdirAll(settings.DataPath, 0o755); err != nil {
			fatal("Data path: %v", err)
		}
		el, err := tracker.Dial(tracker.Config{
			Address:         settings.Tracker.Address,
			Filename:        "calibrat",
			DataPath:        settings.DataPath,
			SampleRate:      settings.Tracker.SampleRate,
			CalibrationType: settings.Tracker.CalibrationType,
			ScreenWidth:     settings.Monitor.Resolution[0],
			ScreenHeight:    settings.Monitor.Resolution[1],
		})
		if err != nil {
			fatal("Tracker: %v", err)
		}
		link = el
	}

	rt := &engine.Runtime{
		Settings:        settings,
		Paint:           display,
		Visuals:         display,
		Input:           display,
		Tracker:         link,
		ExperimentClock: engine.NewClock(),
		NewTrialClock:   engine.NewClock,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	session := engine.NewSession(settings, rt)
	if err := session.Calibrate(); err != nil {
		if errors.Is(err, engine.ErrCancelled) {
			return
		}
		fatal("Calibration: %v", err)
	}
	session.Teardown()
	fmt.Println("Calibration done")
}
