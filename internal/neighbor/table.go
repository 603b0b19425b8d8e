package neighbor

import "github.com/viant/sqlite-knn/classifier"

// Table is an immutable, row-major copy of a training set.
type Table[F Float, L comparable] struct {
	dim    int
	rows   int
	data   []F
	labels []L
}

// NewTable validates and copies features/labels. Row counts must match,
// the set must be non-empty and every row must have the length of the first.
func NewTable[F Float, L comparable](features [][]float64, labels []L) (*Table[F, L], error) {
	if len(features) != len(labels) {
		return nil, &classifier.DimensionError{Axis: classifier.AxisRows, Row: -1, Expected: len(features), Actual: len(labels)}
	}
	if len(features) == 0 {
		return nil, classifier.ErrEmptyTrainingSet
	}
	dim := len(features[0])
	data := make([]F, 0, len(features)*dim)
	for i, row := range features {
		if len(row) != dim {
			return nil, &classifier.DimensionError{Axis: classifier.AxisColumns, Row: i, Expected: dim, Actual: len(row)}
		}
		for _, v := range row {
			data = append(data, F(v))
		}
	}
	return &Table[F, L]{
		dim:    dim,
		rows:   len(features),
		data:   data,
		labels: append([]L(nil), labels...),
	}, nil
}

// Dim returns the feature count.
func (t *Table[F, L]) Dim() int { return t.dim }

// Len returns the number of training rows.
func (t *Table[F, L]) Len() int { return t.rows }

// Row returns training row i; the slice must not be modified.
func (t *Table[F, L]) Row(i int) []F {
	off := i * t.dim
	return t.data[off : off+t.dim : off+t.dim]
}

// Label returns the label of training row i.
func (t *Table[F, L]) Label(i int) L { return t.labels[i] }

// CheckQueries reports the first query row whose length differs from Dim.
func (t *Table[F, L]) CheckQueries(queries [][]float64) error {
	for i, q := range queries {
		if len(q) != t.dim {
			return &classifier.DimensionError{Axis: classifier.AxisColumns, Row: i, Expected: t.dim, Actual: len(q)}
		}
	}
	return nil
}

// Neighbors fills set with the k nearest training rows of query, scanning
// training rows in order.
func (t *Table[F, L]) Neighbors(query []F, set *Set[L], distance DistanceFunc[F]) {
	set.Reset()
	for i := 0; i < t.rows; i++ {
		set.Offer(distance(query, t.Row(i)), t.labels[i])
	}
}

// Classify returns the voted label for query.
func (t *Table[F, L]) Classify(query []F, set *Set[L], distance DistanceFunc[F]) L {
	t.Neighbors(query, set, distance)
	return set.Vote()
}

// Convert copies a float64 row into buf as F, growing buf when needed.
func Convert[F Float](row []float64, buf []F) []F {
	buf = buf[:0]
	for _, v := range row {
		buf = append(buf, F(v))
	}
	return buf
}
