package parallel

import "runtime"

type options struct {
	workers  int
	minChunk int
}

// Option configures a Classifier.
type Option func(*options)

// WithWorkers sets the maximum number of goroutines used by Predict.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMinChunk sets the smallest number of query rows handed to one worker;
// batches smaller than this run on the calling goroutine.
func WithMinChunk(n int) Option {
	return func(o *options) { o.minChunk = n }
}

func newOptions(opts []Option) options {
	o := options{minChunk: defaultMinChunk}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.minChunk < 1 {
		o.minChunk = 1
	}
	return o
}

const defaultMinChunk = 16
