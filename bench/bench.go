package bench

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/viant/sqlite-knn/classifier"
)

// Factory returns a fresh unfitted classifier.
type Factory[L comparable] func() (classifier.Classifier[L], error)

// Result describes one benchmark run.
type Result[L comparable] struct {
	Name      string
	Repeat    int
	Elapsed   time.Duration // total over Repeat runs
	Accuracy  float64
	Predicted []L
}

// PerRun returns the mean duration of one fit+predict run.
func (r Result[L]) PerRun() time.Duration {
	if r.Repeat == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Repeat)
}

// Accuracy returns the fraction of positions where predicted equals truth.
func Accuracy[L comparable](truth, predicted []L) (float64, error) {
	if len(truth) != len(predicted) {
		return 0, fmt.Errorf("bench: %d predictions for %d labels", len(predicted), len(truth))
	}
	if len(truth) == 0 {
		return 0, nil
	}
	hits := 0
	for i := range truth {
		if truth[i] == predicted[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// Run times repeat fit+predict runs of fresh classifiers on features/labels,
// predicting the training set itself, then scores one more run.
func Run[L comparable](ctx context.Context, name string, factory Factory[L], features [][]float64, labels []L, repeat int) (*Result[L], error) {
	if repeat < 1 {
		repeat = 1
	}
	result := &Result[L]{Name: name, Repeat: repeat}
	for i := 0; i < repeat; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := factory()
		if err != nil {
			return nil, err
		}
		started := time.Now()
		if _, err := classifier.FitPredict(c, features, labels); err != nil {
			return nil, fmt.Errorf("bench: %s: %w", name, err)
		}
		result.Elapsed += time.Since(started)
	}
	c, err := factory()
	if err != nil {
		return nil, err
	}
	if result.Predicted, err = classifier.FitPredict(c, features, labels); err != nil {
		return nil, fmt.Errorf("bench: %s: %w", name, err)
	}
	if result.Accuracy, err = Accuracy(labels, result.Predicted); err != nil {
		return nil, err
	}
	return result, nil
}

// Holdout fits a fresh classifier on the training split and returns its
// predictions and accuracy on the test split.
func Holdout[L comparable](factory Factory[L], trainX [][]float64, trainY []L, testX [][]float64, testY []L) ([]L, float64, error) {
	c, err := factory()
	if err != nil {
		return nil, 0, err
	}
	if err := c.Fit(trainX, trainY); err != nil {
		return nil, 0, err
	}
	predicted, err := c.Predict(testX)
	if err != nil {
		return nil, 0, err
	}
	acc, err := Accuracy(testY, predicted)
	return predicted, acc, err
}

// Compare returns the first index where a and b differ, or -1 when they are
// equal. Slices of different length differ at the shorter length.
func Compare[L comparable](a, b []L) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// Split keeps the leading rows for training and the trailing testRatio share
// for testing. The inputs are not copied.
func Split[L comparable](features [][]float64, labels []L, testRatio float64) (trainX [][]float64, trainY []L, testX [][]float64, testY []L, err error) {
	if len(features) != len(labels) {
		return nil, nil, nil, nil, &classifier.DimensionError{Axis: classifier.AxisRows, Row: -1, Expected: len(features), Actual: len(labels)}
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("bench: test ratio %v out of (0,1)", testRatio)
	}
	cut := len(features) - int(float64(len(features))*testRatio)
	if cut < 1 || cut >= len(features) {
		return nil, nil, nil, nil, fmt.Errorf("bench: %d rows cannot be split by %v", len(features), testRatio)
	}
	return features[:cut], labels[:cut], features[cut:], labels[cut:], nil
}

// Shuffle permutes features and labels together with a seeded source.
func Shuffle[L comparable](features [][]float64, labels []L, seed int64) error {
	if len(features) != len(labels) {
		return &classifier.DimensionError{Axis: classifier.AxisRows, Row: -1, Expected: len(features), Actual: len(labels)}
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(features), func(i, j int) {
		features[i], features[j] = features[j], features[i]
		labels[i], labels[j] = labels[j], labels[i]
	})
	return nil
}

// Blobs generates rows points around classes well separated centers.
func Blobs(rows, dim, classes int, spread float64, seed int64) ([][]float64, []int64, error) {
	if rows < 0 || dim < 1 || classes < 1 {
		return nil, nil, fmt.Errorf("bench: invalid blobs shape rows=%d dim=%d classes=%d", rows, dim, classes)
	}
	rng := rand.New(rand.NewSource(seed))
	centers := make([][]float64, classes)
	for c := range centers {
		centers[c] = make([]float64, dim)
		for d := range centers[c] {
			centers[c][d] = float64(c*10) + rng.Float64()
		}
	}
	features := make([][]float64, rows)
	labels := make([]int64, rows)
	for i := range features {
		c := i % classes
		row := make([]float64, dim)
		for d := range row {
			row[d] = centers[c][d] + rng.NormFloat64()*spread
		}
		features[i] = row
		labels[i] = int64(c)
	}
	return features, labels, nil
}
