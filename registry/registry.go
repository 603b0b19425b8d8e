package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/dataset"
	"go.uber.org/zap"
)

// contextPredictor is implemented by classifiers supporting cancellation.
type contextPredictor interface {
	PredictContext(ctx context.Context, queries [][]float64) ([]int64, error)
}

// Registry caches fitted classifiers per (dataset, k).
type Registry struct {
	loader dataset.Loader
	opts   options
	logger *zap.Logger

	mu    sync.Mutex
	cache *lru.Cache[cacheKey, *cacheEntry]
}

// New returns a registry loading training data from loader. The registry
// is reachable from knn_invalidate until Close is called.
func New(loader dataset.Loader, opts ...Option) (*Registry, error) {
	if loader == nil {
		return nil, fmt.Errorf("registry: loader is nil")
	}
	o := newOptions(opts)
	if _, err := NewClassifier[int64](o.kind, o.k, o.workers); err != nil {
		return nil, err
	}
	r := &Registry{loader: loader, opts: o, logger: o.logger}
	cache, err := lru.NewWithEvict[cacheKey, *cacheEntry](o.cacheSize, func(key cacheKey, _ *cacheEntry) {
		r.logger.Debug("evicted classifier", zap.String("dataset", key.dataset), zap.Int("k", key.k))
	})
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	r.cache = cache
	track(r)
	return r, nil
}

// Kind returns the classifier implementation built by the registry.
func (r *Registry) Kind() classifier.Kind { return r.opts.kind }

// K returns the default neighbor count.
func (r *Registry) K() int { return r.opts.k }

// Len returns the number of cached entries.
func (r *Registry) Len() int { return r.cache.Len() }

// resolveK maps k == 0 to the registry default and rejects negative k.
func (r *Registry) resolveK(k int) (int, error) {
	switch {
	case k == 0:
		return r.opts.k, nil
	case k < 0:
		return 0, fmt.Errorf("registry: k=%d: %w", k, classifier.ErrInvalidK)
	}
	return k, nil
}

func (r *Registry) entry(key cacheKey) *cacheEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.cache.Get(key); ok {
		return e
	}
	e := newCacheEntry()
	r.cache.Add(key, e)
	return e
}

// Classifier returns the fitted classifier for datasetID, building it on
// first use. k == 0 selects the registry default; negative k fails with
// classifier.ErrInvalidK.
func (r *Registry) Classifier(ctx context.Context, datasetID string, k int) (classifier.Classifier[int64], error) {
	k, err := r.resolveK(k)
	if err != nil {
		return nil, err
	}
	clf, _, err := r.classifier(ctx, datasetID, k)
	return clf, err
}

func (r *Registry) classifier(ctx context.Context, datasetID string, k int) (classifier.Classifier[int64], *cacheEntry, error) {
	if datasetID == "" {
		return nil, nil, fmt.Errorf("registry: dataset id is required")
	}
	e := r.entry(cacheKey{dataset: datasetID, k: k})
	for {
		if clf, version := e.current(); clf != nil {
			stale, err := r.stale(ctx, datasetID, version)
			if err != nil {
				return nil, nil, err
			}
			if !stale {
				return clf, e, nil
			}
			r.logger.Debug("stale classifier", zap.String("dataset", datasetID), zap.Int("k", k), zap.Int64("version", version))
			e.expire(clf)
			continue
		}
		gen, ok := e.startBuild()
		if !ok {
			if clf := e.waitForBuild(); clf != nil {
				return clf, e, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			continue
		}
		clf, rows, version, err := r.build(ctx, datasetID, k)
		e.finishBuild(clf, rows, version, gen)
		if err != nil {
			return nil, nil, err
		}
		return clf, e, nil
	}
}

// stale reports whether datasetID moved past version. Loaders without
// versions never report stale entries; they rely on Invalidate.
func (r *Registry) stale(ctx context.Context, datasetID string, version int64) (bool, error) {
	versioned, ok := r.loader.(dataset.VersionedLoader)
	if !ok {
		return false, nil
	}
	current, err := versioned.Version(ctx, datasetID)
	if err != nil {
		return false, fmt.Errorf("registry: version %s: %w", datasetID, err)
	}
	return current != version, nil
}

// load reads datasetID with its version, 0 for loaders without versions.
func (r *Registry) load(ctx context.Context, datasetID string) ([][]float64, []int64, int64, error) {
	if versioned, ok := r.loader.(dataset.VersionedLoader); ok {
		features, labels, version, err := versioned.LoadVersion(ctx, datasetID)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("registry: load %s: %w", datasetID, err)
		}
		return features, labels, version, nil
	}
	features, labels, err := r.loader.Load(ctx, datasetID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("registry: load %s: %w", datasetID, err)
	}
	return features, labels, 0, nil
}

func (r *Registry) build(ctx context.Context, datasetID string, k int) (clf classifier.Classifier[int64], rows int, version int64, err error) {
	started := time.Now()
	defer func() {
		if err != nil {
			r.logger.Warn("classifier build failed", zap.String("dataset", datasetID), zap.Int("k", k), zap.Error(err))
			clf = nil
		}
	}()
	features, labels, version, err := r.load(ctx, datasetID)
	if err != nil {
		return nil, 0, 0, err
	}
	clf, err = NewClassifier[int64](r.opts.kind, k, r.opts.workers)
	if err != nil {
		return nil, 0, 0, err
	}
	if err = clf.Fit(features, labels); err != nil {
		return nil, 0, 0, fmt.Errorf("registry: fit %s: %w", datasetID, err)
	}
	r.logger.Info("classifier built",
		zap.String("dataset", datasetID),
		zap.Int("k", k),
		zap.String("kind", string(r.opts.kind)),
		zap.Int("rows", len(features)),
		zap.Int64("version", version),
		zap.Duration("elapsed", time.Since(started)))
	return clf, len(features), version, nil
}

// Predict classifies queries against datasetID. k follows Classifier.
func (r *Registry) Predict(ctx context.Context, datasetID string, k int, queries [][]float64) ([]int64, error) {
	k, err := r.resolveK(k)
	if err != nil {
		return nil, err
	}
	clf, e, err := r.classifier(ctx, datasetID, k)
	if err != nil {
		return nil, err
	}
	e.use.RLock()
	defer e.use.RUnlock()
	if p, ok := clf.(contextPredictor); ok {
		return p.PredictContext(ctx, queries)
	}
	return clf.Predict(queries)
}

// Invalidate drops the fitted classifiers of datasetID; the next use
// rebuilds them. An empty datasetID invalidates every entry. It returns the
// number of invalidated entries.
func (r *Registry) Invalidate(datasetID string) int {
	count := 0
	for _, key := range r.cache.Keys() {
		if datasetID != "" && key.dataset != datasetID {
			continue
		}
		if e, ok := r.cache.Peek(key); ok {
			e.invalidate()
			count++
		}
	}
	if count > 0 {
		r.logger.Debug("invalidated classifiers", zap.String("dataset", datasetID), zap.Int("entries", count))
	}
	return count
}

// Refit reloads datasetID and refits every cached classifier of the dataset
// in place, waiting for in-flight predictions. When nothing is cached a
// classifier with the default k is built. It returns the number of training
// rows.
func (r *Registry) Refit(ctx context.Context, datasetID string) (int, error) {
	var entries []*cacheEntry
	for _, key := range r.cache.Keys() {
		if key.dataset != datasetID {
			continue
		}
		if e, ok := r.cache.Peek(key); ok && e.get() != nil {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		_, e, err := r.classifier(ctx, datasetID, r.opts.k)
		if err != nil {
			return 0, err
		}
		return e.size(), nil
	}

	features, labels, version, err := r.load(ctx, datasetID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		clf := e.get()
		if clf == nil {
			continue
		}
		e.use.Lock()
		err = clf.Fit(features, labels)
		e.use.Unlock()
		if err != nil {
			return 0, fmt.Errorf("registry: refit %s: %w", datasetID, err)
		}
		e.refitted(len(features), version)
	}
	r.logger.Info("classifiers refitted", zap.String("dataset", datasetID), zap.Int("entries", len(entries)), zap.Int("rows", len(features)))
	return len(features), nil
}

// Close purges the cache and detaches the registry from knn_invalidate.
func (r *Registry) Close() error {
	untrack(r)
	r.cache.Purge()
	return nil
}

var registries = struct {
	mu  sync.RWMutex
	set map[*Registry]struct{}
}{set: make(map[*Registry]struct{})}

func track(r *Registry) {
	registries.mu.Lock()
	registries.set[r] = struct{}{}
	registries.mu.Unlock()
}

func untrack(r *Registry) {
	registries.mu.Lock()
	delete(registries.set, r)
	registries.mu.Unlock()
}

// InvalidateAll invalidates datasetID in every open registry and returns the
// number of invalidated entries.
func InvalidateAll(datasetID string) int {
	registries.mu.RLock()
	defer registries.mu.RUnlock()
	count := 0
	for r := range registries.set {
		count += r.Invalidate(datasetID)
	}
	return count
}
