package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// RowMeta is the static per-trial metadata repeated on every row.
type RowMeta struct {
	ExperimentName   string
	ParticipantID    string
	Section          string
	TrialNumber      int
	TargetType       string
	TargetSpeed      float64
	TargetTrajectory string
	TargetRadius     float64
	TargetColor      string
}

// Row is one frame of recorded stimulus data. Rows are appended once
// per frame during the motion phase and never mutated afterwards.
type Row struct {
	RowMeta
	ExperimentTime float64
	TrialTime      float64
	TargetX        float64
	TargetY        float64
}

var rowHeader = []string{
	"experiment_name", "participant_id", "section", "trial_number",
	"target_type", "target_speed", "target_trajectory", "target_radius",
	"target_color", "experiment_time", "trial_time", "target_x", "target_y",
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (r Row) record() []string {
	return []string{
		r.ExperimentName,
		r.ParticipantID,
		r.Section,
		strconv.Itoa(r.TrialNumber),
		r.TargetType,
		fmtFloat(r.TargetSpeed),
		r.TargetTrajectory,
		fmtFloat(r.TargetRadius),
		r.TargetColor,
		fmtFloat(r.ExperimentTime),
		fmtFloat(r.TrialTime),
		fmtFloat(r.TargetX),
		fmtFloat(r.TargetY),
	}
}

// RowSink receives the ordered rows of one trial. The trial loop
// never writes files itself; the session owns the sink.
type RowSink interface {
	WriteRows(rows []Row) error
}

// DataStore writes session data under dir: one cumulative CSV for the
// whole session plus one file per trial in a trials/ subdirectory
// (named <participant>_<trial>_<type>_<trajectory>_<speed>.csv, the
// layout the analysis package matches against).
type DataStore struct {
	dir      string
	filename string
}

func NewDataStore(dir, filename string) (*DataStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "trials"), 0o755); err != nil {
		return nil, err
	}
	d := &DataStore{dir: dir, filename: filename}
	f, err := os.Create(d.sessionPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(rowHeader); err != nil {
		return nil, err
	}
	w.Flush()
	return d, w.Error()
}

func (d *DataStore) Dir() string { return d.dir }

func (d *DataStore) sessionPath() string {
	return filepath.Join(d.dir, d.filename+".csv")
}

// WriteRows appends rows to the session CSV and, when they belong to
// a numbered trial, writes the per-trial file.
func (d *DataStore) WriteRows(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	f, err := os.OpenFile(d.sessionPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if rows[0].TrialNumber > 0 {
		return d.writeTrialFile(rows)
	}
	return nil
}

func (d *DataStore) writeTrialFile(rows []Row) error {
	m := rows[0].RowMeta
	name := fmt.Sprintf("%s_%d_%s_%s_%s.csv",
		m.ParticipantID, m.TrialNumber, m.TargetType, m.TargetTrajectory, fmtFloat(m.TargetSpeed))
	f, err := os.Create(filepath.Join(d.dir, "trials", name))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(rowHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ParticipantInfo is collected once per session and stored next to
// the trial data.
type ParticipantInfo struct {
	ExperimentName string
	ParticipantID  string
	SessionID      string
	Age            string
	Sex            string
	EyeColor       string
	EyeCondition   string
}

func (d *DataStore) WriteParticipantInfo(info ParticipantInfo) error {
	f, err := os.Create(filepath.Join(d.dir, d.filename+"_participant_info.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"experiment_name", "participant_id", "session_id", "participant_age", "participant_sex", "participant_eyecolor", "participant_eyecondition"})
	w.Write([]string{info.ExperimentName, info.ParticipantID, info.SessionID, info.Age, info.Sex, info.EyeColor, info.EyeCondition})
	w.Flush()
	return w.Error()
}

// SectionInfo is one line of the session overview file.
type SectionInfo struct {
	ExperimentName string
	ParticipantID  string
	Section        string
	TrialNumber    int
	TargetType     string
	TargetTrajectory string
	TargetSpeed    float64
	TargetRadius   float64
	TargetColor    string
}

func (d *DataStore) WriteSectionInfo(infos []SectionInfo) error {
	f, err := os.Create(filepath.Join(d.dir, d.filename+"_section_info.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"experiment_name", "participant_id", "section", "trial_number", "target_type", "target_trajectory", "target_speed", "target_radius", "target_color"})
	for _, s := range infos {
		w.Write([]string{
			s.ExperimentName, s.ParticipantID, s.Section, strconv.Itoa(s.TrialNumber),
			s.TargetType, s.TargetTrajectory, fmtFloat(s.TargetSpeed), fmtFloat(s.TargetRadius), s.TargetColor,
		})
	}
	w.Flush()
	return w.Error()
}
