// Package analysis works with the data directory an experiment
// session produces: per-trial CSV matching, merging with
// gaze-classifier labels, per-trial summaries and the train/test
// participant split.
package analysis

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Trials 1..72 are the first half of a session, 73..144 the second.
const halfBoundary = 72

// Halves of a session a query can restrict to.
const (
	HalfBoth   = "both"
	HalfFirst  = "first"
	HalfSecond = "second"
)

// Target type names, longest first so the file-name parser can split
// the type from the trajectory unambiguously.
var knownTypes = []string{
	"back_and_forth_array",
	"jumping_circle",
	"moving_circle",
	"moving_swarm",
	"swarm",
}

// TrialFile identifies one per-trial CSV by the fields encoded in its
// name: <participant>_<trial>_<type>_<trajectory>_<speed>.csv.
type TrialFile struct {
	Path          string
	ParticipantID string
	TrialNumber   int
	TargetType    string
	Trajectory    string
	Speed         float64
}

func parseTrialFile(path string) (TrialFile, bool) {
	base := strings.TrimSuffix(filepath.Base(path), ".csv")
	parts := strings.Split(base, "_")
	if len(parts) < 5 {
		return TrialFile{}, false
	}
	tf := TrialFile{Path: path, ParticipantID: parts[0]}

	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return TrialFile{}, false
	}
	tf.TrialNumber = n

	tf.Speed, err = strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil {
		return TrialFile{}, false
	}

	middle := strings.Join(parts[2:len(parts)-1], "_")
	for _, typ := range knownTypes {
		if rest, ok := strings.CutPrefix(middle, typ+"_"); ok {
			tf.TargetType = typ
			tf.Trajectory = rest
			return tf, true
		}
	}
	return TrialFile{}, false
}

// Filter restricts MatchTrialFiles. Nil slices match everything.
type Filter struct {
	ParticipantIDs []string
	TargetTypes    []string
	Trajectories   []string
	Speeds         []float64
	Half           string
	ExcludedIDs    []string
}

func (f Filter) matches(tf TrialFile) bool {
	if slices.Contains(f.ExcludedIDs, tf.ParticipantID) {
		return false
	}
	if f.ParticipantIDs != nil && !slices.Contains(f.ParticipantIDs, tf.ParticipantID) {
		return false
	}
	if f.TargetTypes != nil && !slices.Contains(f.TargetTypes, tf.TargetType) {
		return false
	}
	if f.Trajectories != nil && !slices.Contains(f.Trajectories, tf.Trajectory) {
		return false
	}
	if f.Speeds != nil && !slices.Contains(f.Speeds, tf.Speed) {
		return false
	}
	switch f.Half {
	case "", HalfBoth:
	case HalfFirst:
		if tf.TrialNumber > halfBoundary {
			return false
		}
	case HalfSecond:
		if tf.TrialNumber <= halfBoundary {
			return false
		}
	}
	return true
}

// MatchTrialFiles finds the per-trial CSVs under root that satisfy
// the filter. Both the flat layout (root/<participant>/trials) and
// the split layout (root/<split>/<participant>/trials) are searched.
func MatchTrialFiles(root string, f Filter) ([]TrialFile, error) {
	if f.Half != "" && f.Half != HalfBoth && f.Half != HalfFirst && f.Half != HalfSecond {
		return nil, fmt.Errorf("analysis: half must be %q, %q or %q", HalfBoth, HalfFirst, HalfSecond)
	}
	patterns := []string{
		filepath.Join(root, "*", "trials", "*.csv"),
		filepath.Join(root, "*", "*", "trials", "*.csv"),
	}
	var out []TrialFile
	for _, p := range patterns {
		paths, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			tf, ok := parseTrialFile(path)
			if ok && f.matches(tf) {
				out = append(out, tf)
			}
		}
	}
	slices.SortFunc(out, func(a, b TrialFile) int {
		if c := strings.Compare(a.ParticipantID, b.ParticipantID); c != 0 {
			return c
		}
		return a.TrialNumber - b.TrialNumber
	})
	return out, nil
}

// TrialNumbers reports the distinct trial numbers in files, sorted.
func TrialNumbers(files []TrialFile) []int {
	var out []int
	for _, tf := range files {
		if !slices.Contains(out, tf.TrialNumber) {
			out = append(out, tf.TrialNumber)
		}
	}
	slices.Sort(out)
	return out
}
