package compact

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/classifier/bruteforce"
)

func TestClassifier_Errors(t *testing.T) {
	_, err := New[int](0)
	assert.ErrorIs(t, err, classifier.ErrInvalidK)

	c, err := New[int](2)
	require.NoError(t, err)
	_, err = c.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, classifier.ErrNotFitted)
	assert.ErrorIs(t, c.Fit([][]float64{}, []int{}), classifier.ErrEmptyTrainingSet)
	assert.ErrorIs(t, c.Fit([][]float64{{1, 2}, {1}}, []int{1, 2}), classifier.ErrDimensionMismatch)

	require.NoError(t, c.Fit([][]float64{{1, 2}, {3, 4}}, []int{1, 2}))
	_, err = c.Predict([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, classifier.ErrDimensionMismatch)
	assert.Equal(t, 2*2*4, c.Footprint())
}

func TestClassifier_TwoClusters(t *testing.T) {
	c, err := New[string](1)
	require.NoError(t, err)
	require.NoError(t, c.Fit([][]float64{{0, 0}, {1, 0}, {10, 10}, {10, 11}}, []string{"low", "low", "high", "high"}))
	got, err := c.Predict([][]float64{{0.5, 0.5}, {9, 9}})
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high"}, got)
}

func TestClassifier_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rows, dim := 150, 5
	features := make([][]float64, rows)
	labels := make([]int64, rows)
	for i := range features {
		features[i] = make([]float64, dim)
		for j := range features[i] {
			features[i][j] = float64(rng.Intn(16))
		}
		labels[i] = int64(rng.Intn(3))
	}
	for _, k := range []int{1, 4, 9} {
		reference, err := bruteforce.New[int64](k)
		require.NoError(t, err)
		expect, err := classifier.FitPredict[int64](reference, features, labels)
		require.NoError(t, err)

		c, err := New[int64](k)
		require.NoError(t, err)
		actual, err := classifier.FitPredict[int64](c, features, labels)
		require.NoError(t, err)
		assert.Equal(t, expect, actual, "k=%d", k)
	}
}
