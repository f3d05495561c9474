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

func buildTracker(settings *engine.Settings, participantID, dataDir string) (engine.TrackerLink, error) {
	if settings.Tracker.DummyMode {
		return tracker.NewDummy(), nil
	}
	link, err := tracker.Dial(tracker.Config{
		Address:         settings.Tracker.Address,
		Filename:        participantID,
		DataPath:        dataDir,
		SampleRate:      settings.Tracker.SampleRate,
		CalibrationType: settings.Tracker.CalibrationType,
		ScreenWidth:     settings.Monitor.Resolution[0],
		ScreenHeight:    settings.Monitor.Resolution[1],
	})
	if err != nil {
		return nil, err
	}
	if settings.Tracker.TriggerDevice == "" {
		return link, nil
	}
	trig, err := tracker.OpenTrigger(settings.Tracker.TriggerDevice, 115200)
	if err != nil {
		return nil, err
	}
	return tracker.NewMulti(link, trig), nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	defer binsdl.Load().Unload()
	defer binttf.Load().Unload()

	settingsFile := flag.String("settings", "", "YAML settings file")
	dataPath := flag.String("data", "", "Override data directory")
	windowed := flag.Bool("windowed", false, "Run in a window instead of fullscreen")
	dummy := flag.Bool("dummy", false, "Force dummy tracker mode")
	age := flag.String("age", "", "Participant age")
	sex := flag.String("sex", "", "Participant sex")
	eyeColor := flag.String("eye-color", "", "Participant eye color")
	eyeCondition := flag.String("eye-condition", "", "Participant eye condition")
	flag.Parse()

	settings, err := engine.LoadSettings(*settingsFile)
	if err != nil {
		fatal("Settings: %v", err)
	}
	if *dataPath != "" {
		settings.DataPath = *dataPath
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

	if hz := display.RefreshRate(); hz > 0 {
		settings.Monitor.RefreshRate = hz
	}

	rt := &engine.Runtime{
		Settings:        settings,
		Paint:           display,
		Visuals:         display,
		Input:           display,
		ExperimentClock: engine.NewClock(),
		NewTrialClock:   engine.NewClock,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	session := engine.NewSession(settings, rt)
	info := engine.ParticipantInfo{
		Age:          *age,
		Sex:          *sex,
		EyeColor:     *eyeColor,
		EyeCondition: *eyeCondition,
	}
	if err := session.Prepare(info); err != nil {
		fatal("Prepare: %v", err)
	}
	fmt.Printf("Participant %s, writing data to %s\n", session.ParticipantID(), session.Store().Dir())

	link, err := buildTracker(settings, session.ParticipantID(), session.Store().Dir())
	if err != nil {
		fatal("Tracker: %v", err)
	}
	rt.Tracker = link

	if err := session.Calibrate(); err != nil {
		if errors.Is(err, engine.ErrCancelled) {
			return
		}
		fatal("Calibration: %v", err)
	}

	if err := session.Run(); err != nil {
		if errors.Is(err, engine.ErrCancelled) {
			fmt.Println("Session cancelled")
			return
		}
		fatal("Session: %v", err)
	}
	fmt.Println("Session complete")
}
