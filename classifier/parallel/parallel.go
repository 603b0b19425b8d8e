package parallel

import (
	"context"
	"sync"

	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/internal/neighbor"
	"golang.org/x/sync/errgroup"
)

// Classifier is a k-NN classifier that classifies query rows in parallel.
type Classifier[L comparable] struct {
	k    int
	opts options

	mu    sync.RWMutex
	table *neighbor.Table[float64, L]
}

// New returns an unfitted classifier voting among k neighbors.
func New[L comparable](k int, opts ...Option) (*Classifier[L], error) {
	if k < 1 {
		return nil, classifier.ErrInvalidK
	}
	return &Classifier[L]{k: k, opts: newOptions(opts)}, nil
}

// Fit validates and copies the training set, replacing any previous one.
func (c *Classifier[L]) Fit(features [][]float64, labels []L) error {
	table, err := neighbor.NewTable[float64, L](features, labels)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
	return nil
}

// Predict returns the voted label for every query row.
func (c *Classifier[L]) Predict(queries [][]float64) ([]L, error) {
	return c.PredictContext(context.Background(), queries)
}

// PredictContext is Predict with cancellation. The context is checked between
// rows; on cancellation ctx.Err() is returned with no partial output.
func (c *Classifier[L]) PredictContext(ctx context.Context, queries [][]float64) ([]L, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table := c.table
	if table == nil {
		return nil, classifier.ErrNotFitted
	}
	if err := table.CheckQueries(queries); err != nil {
		return nil, err
	}
	out := make([]L, len(queries))
	if len(queries) == 0 {
		return out, nil
	}

	chunk := c.chunkSize(len(queries))
	if chunk >= len(queries) {
		if err := c.classify(ctx, table, queries, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.workers)
	for start := 0; start < len(queries); start += chunk {
		end := min(start+chunk, len(queries))
		g.Go(func() error {
			return c.classify(gctx, table, queries[start:end], out[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Classifier[L]) classify(ctx context.Context, table *neighbor.Table[float64, L], queries [][]float64, out []L) error {
	set := neighbor.NewSet[L](c.k)
	for j, q := range queries {
		if err := ctx.Err(); err != nil {
			return err
		}
		out[j] = table.Classify(q, set, neighbor.Euclidean)
	}
	return nil
}

// chunkSize spreads rows evenly over the workers, never below minChunk.
func (c *Classifier[L]) chunkSize(rows int) int {
	chunk := (rows + c.opts.workers - 1) / c.opts.workers
	return max(chunk, c.opts.minChunk)
}

// K returns the neighbor count.
func (c *Classifier[L]) K() int { return c.k }

// Workers returns the goroutine limit used by Predict.
func (c *Classifier[L]) Workers() int { return c.opts.workers }

// Fitted reports whether Fit has succeeded at least once.
func (c *Classifier[L]) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table != nil
}

// Dim returns the training feature count, or 0 when unfitted.
func (c *Classifier[L]) Dim() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table == nil {
		return 0
	}
	return c.table.Dim()
}

// Len returns the number of training rows, or 0 when unfitted.
func (c *Classifier[L]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table == nil {
		return 0
	}
	return c.table.Len()
}

var _ classifier.Classifier[int64] = (*Classifier[int64])(nil)
