package dataset

import (
	"context"
)

// Sample is one labeled training row.
type Sample struct {
	// Features holds the feature values; all samples of a dataset share the
	// same length.
	Features []float64

	// Label is the class of the sample.
	Label int64
}

// Store defines the application-level sample store API.
type Store interface {
	// AddSamples appends samples to datasetID and returns their sequence
	// numbers. Sequence order is training order.
	AddSamples(ctx context.Context, datasetID string, samples []Sample) ([]int64, error)

	// Remove deletes every sample of datasetID and returns the number of
	// removed rows.
	Remove(ctx context.Context, datasetID string) (int64, error)
}

// Loader provides training data for a dataset in training order.
type Loader interface {
	Load(ctx context.Context, datasetID string) ([][]float64, []int64, error)
}

// VersionedLoader is a Loader whose datasets carry a change counter that
// advances with every committed write to the dataset.
type VersionedLoader interface {
	Loader

	// LoadVersion returns the training data with the version it was read at.
	LoadVersion(ctx context.Context, datasetID string) ([][]float64, []int64, int64, error)

	// Version returns the committed version of datasetID, 0 when the
	// dataset was never written.
	Version(ctx context.Context, datasetID string) (int64, error)
}
