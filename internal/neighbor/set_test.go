package neighbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-knn/classifier"
)

func TestSet_Offer(t *testing.T) {
	type offer struct {
		Distance float64
		Label    string
	}
	testCases := []struct {
		description string
		k           int
		offers      []offer
		expect      []classifier.Neighbor[string]
	}{
		{
			description: "fills up to k in arrival order",
			k:           3,
			offers:      []offer{{Distance: 4, Label: "a"}, {Distance: 1, Label: "b"}},
			expect:      []classifier.Neighbor[string]{{Distance: 4, Label: "a"}, {Distance: 1, Label: "b"}},
		},
		{
			description: "equal distance does not evict",
			k:           1,
			offers:      []offer{{Distance: 2, Label: "a"}, {Distance: 1, Label: "b"}, {Distance: 1, Label: "c"}},
			expect:      []classifier.Neighbor[string]{{Distance: 1, Label: "b"}},
		},
		{
			description: "replaces first position holding the maximum",
			k:           2,
			offers:      []offer{{Distance: 3, Label: "x"}, {Distance: 5, Label: "a"}, {Distance: 3, Label: "z"}, {Distance: 1, Label: "y"}},
			expect:      []classifier.Neighbor[string]{{Distance: 1, Label: "y"}, {Distance: 3, Label: "z"}},
		},
		{
			description: "larger distance ignored once full",
			k:           2,
			offers:      []offer{{Distance: 1, Label: "a"}, {Distance: 2, Label: "b"}, {Distance: 9, Label: "c"}},
			expect:      []classifier.Neighbor[string]{{Distance: 1, Label: "a"}, {Distance: 2, Label: "b"}},
		},
	}
	for _, testCase := range testCases {
		set := NewSet[string](testCase.k)
		for _, o := range testCase.offers {
			set.Offer(o.Distance, o.Label)
		}
		assert.EqualValues(t, testCase.expect, set.Candidates(), testCase.description)
	}
}

func TestSet_Vote(t *testing.T) {
	testCases := []struct {
		description string
		labels      []int
		expect      int
	}{
		{description: "plurality", labels: []int{1, 2, 2}, expect: 2},
		{description: "tie goes to first occurrence", labels: []int{7, 3, 3, 7}, expect: 7},
		{description: "three way tie", labels: []int{5, 4, 6}, expect: 5},
		{description: "single", labels: []int{9}, expect: 9},
	}
	for _, testCase := range testCases {
		set := NewSet[int](len(testCase.labels))
		for i, l := range testCase.labels {
			set.Offer(float64(i), l)
		}
		assert.Equal(t, testCase.expect, set.Vote(), testCase.description)
	}
}

func TestSet_ResetReuse(t *testing.T) {
	set := NewSet[int](2)
	set.Offer(1, 1)
	set.Offer(2, 1)
	require.Equal(t, 1, set.Vote())
	set.Reset()
	require.Equal(t, 0, set.Len())
	set.Offer(5, 2)
	assert.Equal(t, 2, set.Vote())
	assert.Equal(t, 0, NewSet[int](1).Vote())
}

func TestEuclidean(t *testing.T) {
	assert.Equal(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}))
	assert.Equal(t, 0.0, Euclidean(nil, nil))
	assert.InDelta(t, 5.0, Euclidean32([]float32{0, 0}, []float32{3, 4}), 1e-6)
}
