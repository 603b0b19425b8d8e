package engine

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/viant/sqlite-knn/internal/neighbor"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterFunctions registers knn_l2 and knn_dim with the driver so they are
// available on new connections opened after this call. Existing open
// connections do not see them. Calling it more than once is a no-op.
func RegisterFunctions() error {
	var err error
	registerOnce.Do(func() {
		if err = sqlite.RegisterDeterministicScalarFunction("knn_l2", 2, knnL2Impl); err != nil {
			return
		}
		err = sqlite.RegisterDeterministicScalarFunction("knn_dim", 1, knnDimImpl)
	})
	return err
}

func asFeatures(arg driver.Value) ([]float64, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeFeatures(v)
	default:
		return nil, fmt.Errorf("knn: unsupported argument type %T for features; want BLOB", arg)
	}
}

// knnL2Impl returns the Euclidean distance used by the classifiers, or NULL
// when either argument is NULL.
func knnL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("knn_l2: expected 2 arguments, got %d", len(args))
	}
	a, err := asFeatures(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asFeatures(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("knn_l2: dim mismatch %d vs %d", len(a), len(b))
	}
	return neighbor.Euclidean(a, b), nil
}

func knnDimImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("knn_dim: expected 1 argument, got %d", len(args))
	}
	a, err := asFeatures(args[0])
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	return int64(len(a)), nil
}

// Local minimal decoder to avoid import cycles in tests.
func decodeFeatures(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("knn: invalid features blob length %d", len(b))
	}
	n := len(b) / 8
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
