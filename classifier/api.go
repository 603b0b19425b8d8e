package classifier

// Classifier defines a k-NN classifier with a fit and a predict stage.
// It enables swapping implementations (native loop, parallel, compact
// storage) behind one contract.
type Classifier[L comparable] interface {
	// Fit stores the training set. features must be non-empty with rows of
	// equal length and labels must have one entry per feature row. Fit again
	// replaces the previous training set; on error the previous state is kept.
	Fit(features [][]float64, labels []L) error

	// Predict returns one label per query row, in input order. Each query row
	// must have the same length as the training rows.
	Predict(queries [][]float64) ([]L, error)
}

// FitPredict fits c on features/labels and predicts the same features.
func FitPredict[L comparable](c Classifier[L], features [][]float64, labels []L) ([]L, error) {
	if err := c.Fit(features, labels); err != nil {
		return nil, err
	}
	return c.Predict(features)
}

// Neighbor is one selected training row: its distance to the query and its
// label.
type Neighbor[L comparable] struct {
	Distance float64
	Label    L
}
