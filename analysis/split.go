package analysis

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
)

// Directories under the data root that never hold session data.
var reservedDirs = map[string]bool{
	"pilot":    true,
	"excluded": true,
	"train":    true,
	"test":     true,
}

// ListParticipants returns the participant directories under root in
// sorted order, skipping the reserved ones.
func ListParticipants(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !reservedDirs[e.Name()] {
			out = append(out, e.Name())
		}
	}
	slices.Sort(out)
	return out, nil
}

// TrainTestSplit partitions participant ids into a training set of
// trainSize and a test set holding the rest. The same seed always
// produces the same split.
func TrainTestSplit(participants []string, trainSize int, seed int64) (train, test []string, err error) {
	if trainSize < 0 || trainSize > len(participants) {
		return nil, nil, fmt.Errorf("analysis: train size %d out of range for %d participants", trainSize, len(participants))
	}
	shuffled := slices.Clone(participants)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	train = shuffled[:trainSize]
	test = shuffled[trainSize:]
	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// ApplySplit moves the participant directories into root/train and
// root/test.
func ApplySplit(root string, train, test []string) error {
	for _, sub := range []string{"train", "test"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return err
		}
	}
	for _, id := range train {
		if err := os.Rename(filepath.Join(root, id), filepath.Join(root, "train", id)); err != nil {
			return err
		}
	}
	for _, id := range test {
		if err := os.Rename(filepath.Join(root, id), filepath.Join(root, "test", id)); err != nil {
			return err
		}
	}
	return nil
}
