package registry

import (
	"github.com/viant/sqlite-knn/classifier"
	"go.uber.org/zap"
)

const (
	defaultK         = 3
	defaultCacheSize = 64
)

type options struct {
	kind      classifier.Kind
	k         int
	workers   int
	cacheSize int
	logger    *zap.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithKind selects the classifier implementation built for each entry.
func WithKind(kind classifier.Kind) Option {
	return func(o *options) { o.kind = kind }
}

// WithK sets the neighbor count used when a caller passes k == 0.
func WithK(k int) Option {
	return func(o *options) { o.k = k }
}

// WithWorkers sets the goroutine limit of parallel classifiers.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithCacheSize bounds the number of cached classifiers.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{kind: classifier.KindBrute, k: defaultK, cacheSize: defaultCacheSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.k < 1 {
		o.k = defaultK
	}
	if o.cacheSize < 1 {
		o.cacheSize = defaultCacheSize
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
