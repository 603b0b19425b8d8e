package bruteforce

import (
	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/internal/neighbor"
)

// Classifier is a brute-force k-NN classifier.
//
// Predict only reads the fitted state, so concurrent Predict calls are safe;
// Fit must not run concurrently with Predict.
type Classifier[L comparable] struct {
	k     int
	table *neighbor.Table[float64, L]
}

// New returns an unfitted classifier voting among k neighbors.
func New[L comparable](k int) (*Classifier[L], error) {
	if k < 1 {
		return nil, classifier.ErrInvalidK
	}
	return &Classifier[L]{k: k}, nil
}

// Fit validates and copies the training set, replacing any previous one.
func (c *Classifier[L]) Fit(features [][]float64, labels []L) error {
	table, err := neighbor.NewTable[float64, L](features, labels)
	if err != nil {
		return err
	}
	c.table = table
	return nil
}

// Predict returns the voted label for every query row.
func (c *Classifier[L]) Predict(queries [][]float64) ([]L, error) {
	table := c.table
	if table == nil {
		return nil, classifier.ErrNotFitted
	}
	if err := table.CheckQueries(queries); err != nil {
		return nil, err
	}
	out := make([]L, len(queries))
	set := neighbor.NewSet[L](c.k)
	for j, q := range queries {
		out[j] = table.Classify(q, set, neighbor.Euclidean)
	}
	return out, nil
}

// Neighbors returns the candidate set selected for a single query, in
// storage order. It is intended for inspecting why a label was chosen.
func (c *Classifier[L]) Neighbors(query []float64) ([]classifier.Neighbor[L], error) {
	table := c.table
	if table == nil {
		return nil, classifier.ErrNotFitted
	}
	if err := table.CheckQueries([][]float64{query}); err != nil {
		return nil, err
	}
	set := neighbor.NewSet[L](c.k)
	table.Neighbors(query, set, neighbor.Euclidean)
	return set.Candidates(), nil
}

// K returns the neighbor count.
func (c *Classifier[L]) K() int { return c.k }

// Fitted reports whether Fit has succeeded at least once.
func (c *Classifier[L]) Fitted() bool { return c.table != nil }

// Dim returns the training feature count, or 0 when unfitted.
func (c *Classifier[L]) Dim() int {
	if c.table == nil {
		return 0
	}
	return c.table.Dim()
}

// Len returns the number of training rows, or 0 when unfitted.
func (c *Classifier[L]) Len() int {
	if c.table == nil {
		return 0
	}
	return c.table.Len()
}

var _ classifier.Classifier[int64] = (*Classifier[int64])(nil)
