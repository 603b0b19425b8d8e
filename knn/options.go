package knn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/sqlite-knn/classifier"
	"go.uber.org/zap"
)

const defaultK = 3

type tableOptions struct {
	k       int
	kind    classifier.Kind
	workers int
}

// parseTableOptions reads key=value arguments of CREATE VIRTUAL TABLE.
// Unknown keys are ignored.
func parseTableOptions(args []string) (tableOptions, error) {
	opts := tableOptions{k: defaultK, kind: classifier.KindBrute}
	for _, raw := range args {
		a := strings.TrimSpace(raw)
		if a == "" {
			continue
		}
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.Trim(strings.TrimSpace(parts[1]), `'"`)
		switch key {
		case "k":
			k, err := strconv.Atoi(val)
			if err != nil || k < 1 {
				return opts, fmt.Errorf("knn: invalid k %q", val)
			}
			opts.k = k
		case "impl", "kind":
			kind, err := classifier.ParseKind(val)
			if err != nil {
				return opts, fmt.Errorf("knn: %w", err)
			}
			opts.kind = kind
		case "workers":
			switch strings.ToLower(val) {
			case "", "auto", "0":
				opts.workers = 0
			default:
				n, err := strconv.Atoi(val)
				if err != nil || n < 0 {
					return opts, fmt.Errorf("knn: invalid workers %q", val)
				}
				opts.workers = n
			}
		}
	}
	return opts, nil
}

type moduleOptions struct {
	logger    *zap.Logger
	cacheSize int
}

// Option configures the knn module.
type Option func(*moduleOptions)

// WithLogger sets the module logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *moduleOptions) { o.logger = logger }
}

// WithCacheSize bounds the number of fitted classifiers cached per
// implementation.
func WithCacheSize(n int) Option {
	return func(o *moduleOptions) { o.cacheSize = n }
}
