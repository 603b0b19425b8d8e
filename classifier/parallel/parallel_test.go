package parallel

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/classifier/bruteforce"
)

func TestNew(t *testing.T) {
	_, err := New[int](0)
	assert.ErrorIs(t, err, classifier.ErrInvalidK)

	c, err := New[int](2, WithWorkers(3))
	require.NoError(t, err)
	assert.Equal(t, 2, c.K())
	assert.Equal(t, 3, c.Workers())

	c, err = New[int](2, WithWorkers(0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.Workers(), 1)
}

func TestClassifier_Errors(t *testing.T) {
	c, err := New[int](1)
	require.NoError(t, err)
	_, err = c.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, classifier.ErrNotFitted)
	assert.ErrorIs(t, c.Fit(nil, nil), classifier.ErrEmptyTrainingSet)
	assert.ErrorIs(t, c.Fit([][]float64{{1}, {2}, {3}}, []int{1, 2}), classifier.ErrDimensionMismatch)

	require.NoError(t, c.Fit([][]float64{{1, 2}}, []int{1}))
	_, err = c.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, classifier.ErrDimensionMismatch)
	assert.True(t, c.Fitted())
	assert.Equal(t, 2, c.Dim())
	assert.Equal(t, 1, c.Len())
}

func TestClassifier_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	features, labels := randomSet(rng, 300, 6, 4)
	queries, _ := randomSet(rng, 257, 6, 4)

	testCases := []struct {
		description string
		k           int
		opts        []Option
	}{
		{description: "single worker", k: 1, opts: []Option{WithWorkers(1)}},
		{description: "many workers small chunks", k: 3, opts: []Option{WithWorkers(8), WithMinChunk(1)}},
		{description: "default workers", k: 5},
		{description: "k above rows", k: 500, opts: []Option{WithWorkers(4), WithMinChunk(10)}},
	}
	for _, testCase := range testCases {
		reference, err := bruteforce.New[int](testCase.k)
		require.NoError(t, err)
		expect, err := classifier.FitPredict[int](reference, features, labels)
		require.NoError(t, err)
		expectQueries, err := reference.Predict(queries)
		require.NoError(t, err)

		c, err := New[int](testCase.k, testCase.opts...)
		require.NoError(t, err, testCase.description)
		actual, err := classifier.FitPredict[int](c, features, labels)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, expect, actual, testCase.description)
		actualQueries, err := c.Predict(queries)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, expectQueries, actualQueries, testCase.description)
	}
}

func TestClassifier_EmptyQueries(t *testing.T) {
	c, err := New[string](1)
	require.NoError(t, err)
	require.NoError(t, c.Fit([][]float64{{0}}, []string{"a"}))
	got, err := c.Predict([][]float64{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifier_PredictContextCancelled(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	features, labels := randomSet(rng, 50, 3, 2)
	c, err := New[int](3, WithWorkers(2), WithMinChunk(1))
	require.NoError(t, err)
	require.NoError(t, c.Fit(features, labels))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := c.PredictContext(ctx, features)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestClassifier_ConcurrentFitPredict(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	features, labels := randomSet(rng, 100, 3, 3)
	c, err := New[int](3, WithWorkers(2), WithMinChunk(4))
	require.NoError(t, err)
	require.NoError(t, c.Fit(features, labels))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				assert.NoError(t, c.Fit(features, labels))
				return
			}
			got, err := c.Predict(features)
			assert.NoError(t, err)
			assert.Len(t, got, len(features))
		}(i)
	}
	wg.Wait()
}

func randomSet(rng *rand.Rand, rows, dim, classes int) ([][]float64, []int) {
	features := make([][]float64, rows)
	labels := make([]int, rows)
	for i := range features {
		row := make([]float64, dim)
		for j := range row {
			row[j] = float64(rng.Intn(10))
		}
		features[i] = row
		labels[i] = rng.Intn(classes)
	}
	return features, labels
}
