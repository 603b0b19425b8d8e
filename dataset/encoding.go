package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFeatures encodes a slice of float64 values into a BLOB representation
// suitable for storage in SQLite: a little-endian sequence of IEEE 754
// float64 values without a length prefix.
func EncodeFeatures(values []float64) []byte {
	if len(values) == 0 {
		return nil
	}
	b := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

// DecodeFeatures decodes a BLOB produced by EncodeFeatures.
func DecodeFeatures(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("dataset: invalid features blob length %d (not multiple of 8)", len(b))
	}
	n := len(b) / 8
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return values, nil
}
