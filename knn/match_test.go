package knn

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-knn/dataset"
)

func TestDecodeMatchArg(t *testing.T) {
	blob := dataset.EncodeFeatures([]float64{1.5, -2})
	testCases := []struct {
		description string
		arg         interface{}
		expect      [][]float64
	}{
		{description: "blob", arg: blob, expect: [][]float64{{1.5, -2}}},
		{description: "json row", arg: "[1, 2.5]", expect: [][]float64{{1, 2.5}}},
		{description: "json batch", arg: "[[1,2],[3,4]]", expect: [][]float64{{1, 2}, {3, 4}}},
		{description: "csv row", arg: " 1, 2 ,3", expect: [][]float64{{1, 2, 3}}},
		{description: "csv single value", arg: "7", expect: [][]float64{{7}}},
		{description: "csv batch", arg: "1,2;3,4\n5,6", expect: [][]float64{{1, 2}, {3, 4}, {5, 6}}},
		{description: "base64 blob", arg: base64.StdEncoding.EncodeToString(blob), expect: [][]float64{{1.5, -2}}},
	}
	for _, testCase := range testCases {
		actual, err := decodeMatchArg(testCase.arg)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}

	for _, arg := range []interface{}{"", "  ", "[1,", "abc!", []byte{}, []byte{1, 2, 3}, int64(4)} {
		_, err := decodeMatchArg(arg)
		assert.Error(t, err, "%v", arg)
	}
}

func TestDecodeMatchArg_EmptyValue(t *testing.T) {
	for _, arg := range []string{"1,,1", "1,2,", ",1", "1,2;3,,4"} {
		rows, err := decodeMatchArg(arg)
		require.Error(t, err, arg)
		assert.Contains(t, err.Error(), "empty value", arg)
		assert.Nil(t, rows, arg)
	}
}
