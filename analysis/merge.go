package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Sample is one frame of trial data, optionally carrying the gaze
// classifier's label after a merge.
type Sample struct {
	ParticipantID    string
	TrialNumber      int
	TargetType       string
	TargetTrajectory string
	TargetSpeed      float64
	ExperimentTime   float64
	TrialTime        float64
	TargetX          float64
	TargetY          float64
	Label            string
}

// labelNames translates the gazehmm classifier's numeric states.
var labelNames = map[int]string{
	0: "Blink",
	1: "Fixation",
	2: "Saccade",
	3: "PSO",
	4: "Smooth Pursuit",
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func readCSV(path string, visit func(idx map[string]int, record []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("analysis: %s: %w", path, err)
	}
	idx := columnIndex(header)
	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("analysis: %s: %w", path, err)
		}
		if err := visit(idx, record); err != nil {
			return fmt.Errorf("analysis: %s: %w", path, err)
		}
	}
}

func field(idx map[string]int, record []string, name string) (string, error) {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return "", fmt.Errorf("missing column %q", name)
	}
	return record[i], nil
}

func floatField(idx map[string]int, record []string, name string) (float64, error) {
	s, err := field(idx, record, name)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

func intField(idx map[string]int, record []string, name string) (int, error) {
	s, err := field(idx, record, name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// ReadTrialFiles loads the frame rows of the given trial files.
func ReadTrialFiles(files []TrialFile) ([]Sample, error) {
	var out []Sample
	for _, tf := range files {
		err := readCSV(tf.Path, func(idx map[string]int, record []string) error {
			s := Sample{ParticipantID: tf.ParticipantID}
			var err error
			if s.TrialNumber, err = intField(idx, record, "trial_number"); err != nil {
				return err
			}
			if s.TargetType, err = field(idx, record, "target_type"); err != nil {
				return err
			}
			if s.TargetTrajectory, err = field(idx, record, "target_trajectory"); err != nil {
				return err
			}
			if s.TargetSpeed, err = floatField(idx, record, "target_speed"); err != nil {
				return err
			}
			if s.ExperimentTime, err = floatField(idx, record, "experiment_time"); err != nil {
				return err
			}
			if s.TrialTime, err = floatField(idx, record, "trial_time"); err != nil {
				return err
			}
			if s.TargetX, err = floatField(idx, record, "target_x"); err != nil {
				return err
			}
			if s.TargetY, err = floatField(idx, record, "target_y"); err != nil {
				return err
			}
			out = append(out, s)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LabelSample is one classified frame from a gazehmm output file.
type LabelSample struct {
	ParticipantID string
	TrialNumber   int
	TrialTime     float64
	Label         string
}

// ReadLabelFiles loads gazehmm classifier outputs from the data
// layout (<participant dir>/gazehmm/<participant>_<trial>_gazehmm.csv).
// Nil participantIDs or trialNumbers match everything.
func ReadLabelFiles(root string, participantIDs []string, trialNumbers []int) ([]LabelSample, error) {
	patterns := []string{
		filepath.Join(root, "*", "gazehmm", "*.csv"),
		filepath.Join(root, "*", "*", "gazehmm", "*.csv"),
	}
	var out []LabelSample
	for _, p := range patterns {
		paths, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			base := strings.TrimSuffix(filepath.Base(path), ".csv")
			parts := strings.Split(base, "_")
			if len(parts) != 3 || parts[2] != "gazehmm" {
				continue
			}
			pid := parts[0]
			trial, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			if participantIDs != nil && !slices.Contains(participantIDs, pid) {
				continue
			}
			if trialNumbers != nil && !slices.Contains(trialNumbers, trial) {
				continue
			}
			err = readCSV(path, func(idx map[string]int, record []string) error {
				s := LabelSample{ParticipantID: pid, TrialNumber: trial}
				var err error
				if s.TrialTime, err = floatField(idx, record, "t"); err != nil {
					return err
				}
				code, err := intField(idx, record, "label")
				if err != nil {
					return err
				}
				name, ok := labelNames[code]
				if !ok {
					return fmt.Errorf("unknown label %d", code)
				}
				s.Label = name
				out = append(out, s)
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

type mergeKey struct {
	pid   string
	trial int
	time  float64
}

// Merge joins trial samples with classifier labels on participant,
// trial number and trial time. Samples without a label are dropped,
// matching an inner join.
func Merge(samples []Sample, labels []LabelSample) []Sample {
	byKey := make(map[mergeKey]string, len(labels))
	for _, l := range labels {
		byKey[mergeKey{l.ParticipantID, l.TrialNumber, l.TrialTime}] = l.Label
	}
	var out []Sample
	for _, s := range samples {
		if label, ok := byKey[mergeKey{s.ParticipantID, s.TrialNumber, s.TrialTime}]; ok {
			s.Label = label
			out = append(out, s)
		}
	}
	return out
}
