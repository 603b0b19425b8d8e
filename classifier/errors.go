package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTrainingSet is returned when Fit receives zero training rows.
	ErrEmptyTrainingSet = errors.New("classifier: empty training set")

	// ErrDimensionMismatch indicates a row-count or feature-count mismatch.
	ErrDimensionMismatch = errors.New("classifier: dimension mismatch")

	// ErrNotFitted is returned when Predict is called before Fit.
	ErrNotFitted = errors.New("classifier: not fitted")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("classifier: k must be positive")
)

// Axis names the dimension a DimensionError refers to.
type Axis string

const (
	// AxisRows compares feature rows against labels.
	AxisRows Axis = "rows"
	// AxisColumns compares a row length against the expected feature count.
	AxisColumns Axis = "columns"
)

// DimensionError describes a mismatch between expected and actual shapes.
// It unwraps to ErrDimensionMismatch.
type DimensionError struct {
	Axis     Axis
	Row      int // offending row for AxisColumns, -1 otherwise
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	if e.Axis == AxisColumns && e.Row >= 0 {
		return fmt.Sprintf("classifier: dimension mismatch: row %d has %d columns, expected %d", e.Row, e.Actual, e.Expected)
	}
	return fmt.Sprintf("classifier: dimension mismatch: %s expected %d, got %d", e.Axis, e.Expected, e.Actual)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }
