package registry

import (
	"fmt"

	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/classifier/bruteforce"
	"github.com/viant/sqlite-knn/classifier/compact"
	"github.com/viant/sqlite-knn/classifier/parallel"
)

// NewClassifier returns an unfitted classifier of the given kind. workers is
// used by the parallel kind only; values below 1 select GOMAXPROCS.
func NewClassifier[L comparable](kind classifier.Kind, k, workers int) (classifier.Classifier[L], error) {
	switch kind {
	case classifier.KindBrute, "":
		return bruteforce.New[L](k)
	case classifier.KindParallel:
		return parallel.New[L](k, parallel.WithWorkers(workers))
	case classifier.KindCompact:
		return compact.New[L](k)
	default:
		return nil, fmt.Errorf("registry: unsupported classifier kind %q", kind)
	}
}
