package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Session owns one experiment run: participant identity, the section
// plan, the data store and the teardown path. Sections share the
// collaborators through the Runtime; nothing else is shared across
// trials.
type Session struct {
	settings *Settings
	rt       *Runtime

	participantID string
	sessionID     string
	store         *DataStore
	sections      []Section
	tornDown      bool
}

func NewSession(settings *Settings, rt *Runtime) *Session {
	return &Session{settings: settings, rt: rt}
}

// generateParticipantID derives an 8 character id from the current
// time. Eight characters because the tracker's data-file names are
// limited to that length.
func generateParticipantID(now time.Time) string {
	sum := sha256.Sum256([]byte(now.Format("2006-01-02_15-04-05")))
	return hex.EncodeToString(sum[:])[:8]
}

func (s *Session) ParticipantID() string { return s.participantID }

func (s *Session) Sections() []Section { return s.sections }

// SetupSections builds the factorial trial plan: for every
// repetition and speed, all trajectory x type combinations shuffled
// within the speed block. Trial numbers are assigned after
// shuffling; the tutorial always comes first.
func (s *Session) SetupSections() {
	plan := s.settings.Trials
	meta := RowMeta{
		ExperimentName: s.settings.ExperimentName,
		ParticipantID:  s.participantID,
		TargetRadius:   s.settings.Targets.Radius,
		TargetColor:    s.settings.Targets.FillColor,
	}

	var trials []*TrialSection
	for rep := 0; rep < plan.Repetitions; rep++ {
		for _, speed := range plan.TargetSpeeds {
			block := make([]*TrialSection, 0, len(plan.TargetTrajectories)*len(plan.TargetTypes))
			for _, trajectory := range plan.TargetTrajectories {
				for _, targetType := range plan.TargetTypes {
					m := meta
					m.TargetType = targetType
					m.TargetSpeed = speed
					m.TargetTrajectory = trajectory
					block = append(block, &TrialSection{Meta: m})
				}
			}
			s.rt.Rand.Shuffle(len(block), func(i, j int) {
				block[i], block[j] = block[j], block[i]
			})
			trials = append(trials, block...)
		}
	}
	for i, t := range trials {
		t.SectionName = fmt.Sprintf("Trial %d", i+1)
		t.Meta.TrialNumber = i + 1
		t.Meta.Section = t.SectionName
	}

	tutorialMeta := meta
	tutorialMeta.Section = "Tutorial"
	s.sections = []Section{NewTutorialSection(tutorialMeta)}
	for _, t := range trials {
		s.sections = append(s.sections, t)
	}
}

// Prepare creates the participant identity, the data directory and
// the static data files. It must run before any trial.
func (s *Session) Prepare(info ParticipantInfo) error {
	s.participantID = generateParticipantID(time.Now())
	s.sessionID = uuid.NewString()

	dir := filepath.Join(s.settings.DataPath, s.participantID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("session: participant id %s already exists", s.participantID)
	}
	store, err := NewDataStore(dir, s.participantID)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.store = store

	info.ExperimentName = s.settings.ExperimentName
	info.ParticipantID = s.participantID
	info.SessionID = s.sessionID
	if err := store.WriteParticipantInfo(info); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.SetupSections()

	var infos []SectionInfo
	for _, sec := range s.sections {
		t, ok := sec.(interface{ trialMeta() RowMeta })
		if !ok {
			continue
		}
		m := t.trialMeta()
		infos = append(infos, SectionInfo{
			ExperimentName:   m.ExperimentName,
			ParticipantID:    s.participantID,
			Section:          sec.Name(),
			TrialNumber:      m.TrialNumber,
			TargetType:       m.TargetType,
			TargetTrajectory: m.TargetTrajectory,
			TargetSpeed:      m.TargetSpeed,
			TargetRadius:     m.TargetRadius,
			TargetColor:      m.TargetColor,
		})
	}
	return store.WriteSectionInfo(infos)
}

// Store exposes the session data store for callers that need the
// output directory.
func (s *Session) Store() *DataStore { return s.store }

// Calibrate shows the calibration instruction, waits for the
// continue signal and hands control to the tracker setup when the
// link supports it.
func (s *Session) Calibrate() error {
	s.rt.Paint.Clear()
	s.rt.Paint.DrawText(s.settings.Tracker.CalibrationText, Point{})
	s.rt.Paint.Flip()
	if err := waitContinue(s.rt); err != nil {
		// Cancelling at the calibration screen ends the session
		// before Run's own teardown is armed.
		s.Teardown()
		return err
	}
	cal, ok := s.rt.Tracker.(Calibrator)
	if !ok {
		return nil
	}
	if err := cal.Calibrate(); err != nil {
		s.Teardown()
		return err
	}
	return nil
}

// Run executes all sections in order. Tracker failures abort the
// affected trial and continue; cancellation and everything else stops
// the session. Teardown runs exactly once on every path.
func (s *Session) Run() error {
	defer s.Teardown()

	fmt.Println("Running through sections...")
	for _, sec := range s.sections {
		fmt.Println(sec.Name())
		rows, err := sec.Run(s.rt)
		switch {
		case errors.Is(err, ErrTrialAborted):
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", sec.Name(), err)
			continue
		case err != nil:
			return err
		}
		if rows == nil {
			continue
		}
		if len(rows) == 0 {
			// A trial that ran but produced no frames is a
			// programming error, not a device condition.
			return fmt.Errorf("session: %s returned an empty row log", sec.Name())
		}
		if err := s.store.WriteRows(rows); err != nil {
			return fmt.Errorf("session: writing rows for %s: %w", sec.Name(), err)
		}
	}
	return nil
}

// Teardown closes the tracking link (which triggers data-file
// retrieval on the host side). Guarded so cancellation, calibration
// failure and normal completion cannot run it more than once.
func (s *Session) Teardown() {
	if s.tornDown || s.rt.Tracker == nil {
		return
	}
	s.tornDown = true
	if err := s.rt.Tracker.EndSession(); err != nil {
		fmt.Fprintf(os.Stderr, "Tracker shutdown: %v\n", err)
	}
}

func (s *TrialSection) trialMeta() RowMeta { return s.Meta }
