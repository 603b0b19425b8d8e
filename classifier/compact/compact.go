package compact

import (
	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/internal/neighbor"
)

// Classifier is a k-NN classifier over float32 training storage.
//
// Like the brute-force reference, Fit must not run concurrently with Predict.
type Classifier[L comparable] struct {
	k     int
	table *neighbor.Table[float32, L]
}

// New returns an unfitted classifier voting among k neighbors.
func New[L comparable](k int) (*Classifier[L], error) {
	if k < 1 {
		return nil, classifier.ErrInvalidK
	}
	return &Classifier[L]{k: k}, nil
}

// Fit validates the training set and stores it as float32.
func (c *Classifier[L]) Fit(features [][]float64, labels []L) error {
	table, err := neighbor.NewTable[float32, L](features, labels)
	if err != nil {
		return err
	}
	c.table = table
	return nil
}

// Predict returns the voted label for every query row. Query rows are
// narrowed to float32 before distances are computed.
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
	buf := make([]float32, 0, table.Dim())
	for j, q := range queries {
		buf = neighbor.Convert(q, buf)
		out[j] = table.Classify(buf, set, neighbor.Euclidean32)
	}
	return out, nil
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

// Footprint returns the bytes held by the training features.
func (c *Classifier[L]) Footprint() int {
	return c.Len() * c.Dim() * 4
}

var _ classifier.Classifier[int64] = (*Classifier[int64])(nil)
