package analysis

import (
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// TrialSummary describes the timing and geometry of one recorded
// trial.
type TrialSummary struct {
	ParticipantID    string
	TrialNumber      int
	TargetType       string
	TargetTrajectory string
	TargetSpeed      float64
	Frames           int
	Duration         float64
	MeanInterval     float64
	StdInterval      float64
	PathLength       float64
}

type trialKey struct {
	pid   string
	trial int
}

// Summarize groups samples by participant and trial and computes
// per-trial frame statistics: frame count, duration, the mean and
// standard deviation of the frame interval, and the length of the
// target's path in pixels.
func Summarize(samples []Sample) []TrialSummary {
	groups := make(map[trialKey][]Sample)
	for _, s := range samples {
		k := trialKey{s.ParticipantID, s.TrialNumber}
		groups[k] = append(groups[k], s)
	}

	var out []TrialSummary
	for _, rows := range groups {
		slices.SortFunc(rows, func(a, b Sample) int {
			switch {
			case a.TrialTime < b.TrialTime:
				return -1
			case a.TrialTime > b.TrialTime:
				return 1
			}
			return 0
		})
		first := rows[0]
		sum := TrialSummary{
			ParticipantID:    first.ParticipantID,
			TrialNumber:      first.TrialNumber,
			TargetType:       first.TargetType,
			TargetTrajectory: first.TargetTrajectory,
			TargetSpeed:      first.TargetSpeed,
			Frames:           len(rows),
			Duration:         rows[len(rows)-1].TrialTime - first.TrialTime,
		}

		intervals := make([]float64, 0, len(rows)-1)
		for i := 1; i < len(rows); i++ {
			intervals = append(intervals, rows[i].TrialTime-rows[i-1].TrialTime)
			sum.PathLength += math.Hypot(rows[i].TargetX-rows[i-1].TargetX, rows[i].TargetY-rows[i-1].TargetY)
		}
		if len(intervals) > 0 {
			sum.MeanInterval = stat.Mean(intervals, nil)
			sum.StdInterval = stat.StdDev(intervals, nil)
		}
		out = append(out, sum)
	}

	slices.SortFunc(out, func(a, b TrialSummary) int {
		if c := strings.Compare(a.ParticipantID, b.ParticipantID); c != 0 {
			return c
		}
		return a.TrialNumber - b.TrialNumber
	})
	return out
}

// LabelShares reports the fraction of merged samples carrying each
// classifier label.
func LabelShares(samples []Sample) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, s := range samples {
		if s.Label == "" {
			continue
		}
		counts[s.Label]++
		total++
	}
	shares := make(map[string]float64, len(counts))
	for label, n := range counts {
		shares[label] = float64(n) / float64(total)
	}
	return shares
}
