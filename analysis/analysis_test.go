package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedTrialFiles(t *testing.T, root string) {
	t.Helper()
	names := []string{
		"aaaa1111/trials/aaaa1111_1_moving_circle_hor_right_3.csv",
		"aaaa1111/trials/aaaa1111_80_jumping_circle_cir_clock_6.csv",
		"bbbb2222/trials/bbbb2222_5_back_and_forth_array_diag_up_left_1.csv",
		"train/cccc3333/trials/cccc3333_10_moving_circle_ver_up_3.csv",
	}
	for _, n := range names {
		writeFile(t, filepath.Join(root, n), "")
	}
}

func TestParseTrialFile(t *testing.T) {
	tests := []struct {
		name string
		want TrialFile
	}{
		{
			name: "aaaa1111_1_moving_circle_hor_right_3.csv",
			want: TrialFile{ParticipantID: "aaaa1111", TrialNumber: 1, TargetType: "moving_circle", Trajectory: "hor_right", Speed: 3},
		},
		{
			name: "bbbb2222_144_back_and_forth_array_diag_down_right_6.csv",
			want: TrialFile{ParticipantID: "bbbb2222", TrialNumber: 144, TargetType: "back_and_forth_array", Trajectory: "diag_down_right", Speed: 6},
		},
		{
			name: "cccc3333_7_moving_swarm_cir_counter_1.csv",
			want: TrialFile{ParticipantID: "cccc3333", TrialNumber: 7, TargetType: "moving_swarm", Trajectory: "cir_counter", Speed: 1},
		},
	}
	for _, tt := range tests {
		tf, ok := parseTrialFile(tt.name)
		require.True(t, ok, tt.name)
		tt.want.Path = tt.name
		assert.Equal(t, tt.want, tf)
	}

	_, ok := parseTrialFile("notes.csv")
	assert.False(t, ok)
}

func TestMatchTrialFiles(t *testing.T) {
	root := t.TempDir()
	seedTrialFiles(t, root)

	all, err := MatchTrialFiles(root, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byType, err := MatchTrialFiles(root, Filter{TargetTypes: []string{"moving_circle"}})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	first, err := MatchTrialFiles(root, Filter{Half: HalfFirst})
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := MatchTrialFiles(root, Filter{Half: HalfSecond})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 80, second[0].TrialNumber)

	excluded, err := MatchTrialFiles(root, Filter{ExcludedIDs: []string{"aaaa1111"}})
	require.NoError(t, err)
	assert.Len(t, excluded, 2)

	_, err = MatchTrialFiles(root, Filter{Half: "third"})
	assert.Error(t, err)

	nums := TrialNumbers(all)
	assert.Equal(t, []int{1, 5, 10, 80}, nums)
}

const trialCSVHeader = "experiment_name,participant_id,section,trial_number,target_type,target_speed,target_trajectory,target_radius,target_color,experiment_time,trial_time,target_x,target_y\n"

func trialCSVRow(pid string, trial int, trialTime, x, y float64) string {
	return fmt.Sprintf("sp_experiment,%s,Trial %d,%d,moving_circle,3,hor_right,30,white,%g,%g,%g,%g\n",
		pid, trial, trial, trialTime+10, trialTime, x, y)
}

func TestReadAndMergeWithLabels(t *testing.T) {
	root := t.TempDir()
	trialPath := filepath.Join(root, "aaaa1111", "trials", "aaaa1111_1_moving_circle_hor_right_3.csv")
	writeFile(t, trialPath, trialCSVHeader+
		trialCSVRow("aaaa1111", 1, 0.01, -200, 0)+
		trialCSVRow("aaaa1111", 1, 0.02, -199, 0)+
		trialCSVRow("aaaa1111", 1, 0.03, -198, 0))

	writeFile(t, filepath.Join(root, "aaaa1111", "gazehmm", "aaaa1111_1_gazehmm.csv"),
		"participant_id,trial_number,t,x,y,label\n"+
			"aaaa1111,1,0.01,5,5,4\n"+
			"aaaa1111,1,0.02,5,5,2\n")

	files, err := MatchTrialFiles(root, Filter{})
	require.NoError(t, err)
	samples, err := ReadTrialFiles(files)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, -200.0, samples[0].TargetX)

	labels, err := ReadLabelFiles(root, nil, nil)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "Smooth Pursuit", labels[0].Label)

	merged := Merge(samples, labels)
	require.Len(t, merged, 2)
	assert.Equal(t, "Smooth Pursuit", merged[0].Label)
	assert.Equal(t, "Saccade", merged[1].Label)

	shares := LabelShares(merged)
	assert.InDelta(t, 0.5, shares["Smooth Pursuit"], 1e-9)
	assert.InDelta(t, 0.5, shares["Saccade"], 1e-9)
}

func TestSummarize(t *testing.T) {
	samples := []Sample{
		{ParticipantID: "p", TrialNumber: 1, TargetType: "moving_circle", TargetTrajectory: "hor_right", TargetSpeed: 3, TrialTime: 0.00, TargetX: 0, TargetY: 0},
		{ParticipantID: "p", TrialNumber: 1, TargetType: "moving_circle", TargetTrajectory: "hor_right", TargetSpeed: 3, TrialTime: 0.02, TargetX: 3, TargetY: 4},
		{ParticipantID: "p", TrialNumber: 1, TargetType: "moving_circle", TargetTrajectory: "hor_right", TargetSpeed: 3, TrialTime: 0.04, TargetX: 6, TargetY: 8},
	}
	out := Summarize(samples)
	require.Len(t, out, 1)
	s := out[0]
	assert.Equal(t, 3, s.Frames)
	assert.InDelta(t, 0.04, s.Duration, 1e-9)
	assert.InDelta(t, 0.02, s.MeanInterval, 1e-9)
	assert.InDelta(t, 0, s.StdInterval, 1e-9)
	assert.InDelta(t, 10, s.PathLength, 1e-9)
}

func TestReadableLabels(t *testing.T) {
	assert.Equal(t, "Moving Circle (SP)", ReadableType("moving_circle"))
	assert.Equal(t, "Horizontal Right →", ReadableTrajectory("hor_right"))
	assert.Equal(t, "3°/s", ReadableSpeed(3))
	assert.Equal(t, "unknown", ReadableType("unknown"))
}

func TestTrainTestSplit(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	train1, test1, err := TrainTestSplit(ids, 3, 1)
	require.NoError(t, err)
	train2, test2, err := TrainTestSplit(ids, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
	assert.Len(t, train1, 3)
	assert.Len(t, test1, 2)
	for _, id := range train1 {
		assert.NotContains(t, test1, id)
	}

	_, _, err = TrainTestSplit(ids, 9, 1)
	assert.Error(t, err)
}

func TestApplySplit(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"p1", "p2", "pilot"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, id), 0o755))
	}

	ids, err := ListParticipants(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	require.NoError(t, ApplySplit(root, []string{"p1"}, []string{"p2"}))
	assert.DirExists(t, filepath.Join(root, "train", "p1"))
	assert.DirExists(t, filepath.Join(root, "test", "p2"))
}
