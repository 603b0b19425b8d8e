package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		opts        CSVOptions
		header      []string
		features    [][]float64
		labels      []string
	}{
		{
			description: "header with trailing label",
			input:       "a,b,species\n5.1, 3.5,setosa\n6.2,2.9, versicolor\n",
			opts:        CSVOptions{Header: true, LabelColumn: -1},
			header:      []string{"a", "b", "species"},
			features:    [][]float64{{5.1, 3.5}, {6.2, 2.9}},
			labels:      []string{"setosa", "versicolor"},
		},
		{
			description: "leading label without header",
			input:       "1,0.5,0.25\n0,1,2\n",
			opts:        CSVOptions{LabelColumn: 0},
			features:    [][]float64{{0.5, 0.25}, {1, 2}},
			labels:      []string{"1", "0"},
		},
		{
			description: "query file without labels",
			input:       "1;2\n3;4\n",
			opts:        CSVOptions{NoLabel: true, Comma: ';'},
			features:    [][]float64{{1, 2}, {3, 4}},
		},
	}
	for _, testCase := range testCases {
		table, err := ReadCSV(strings.NewReader(testCase.input), testCase.opts)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.header, table.Header, testCase.description)
		assert.Equal(t, testCase.features, table.Features, testCase.description)
		assert.Equal(t, testCase.labels, table.Labels, testCase.description)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,x,0\n"), CSVOptions{LabelColumn: -1})
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("1,2,0\n1,0\n"), CSVOptions{LabelColumn: -1})
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("1,2\n"), CSVOptions{LabelColumn: 5})
	assert.Error(t, err)
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder()
	assert.Equal(t, []int64{0, 1, 0, 2}, enc.EncodeAll([]string{"setosa", "virginica", "setosa", "versicolor"}))
	name, ok := enc.Decode(1)
	assert.True(t, ok)
	assert.Equal(t, "virginica", name)
	_, ok = enc.Decode(3)
	assert.False(t, ok)
	assert.Equal(t, []string{"setosa", "virginica", "versicolor"}, enc.Names())

	ints, ok := IntLabels([]string{"3", "-1"})
	assert.True(t, ok)
	assert.Equal(t, []int64{3, -1}, ints)
	_, ok = IntLabels([]string{"3", "x"})
	assert.False(t, ok)
}

func TestNewLabelEncoderFrom(t *testing.T) {
	enc, err := NewLabelEncoderFrom(map[int64]string{0: "setosa", 1: "virginica"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 0, 2}, enc.EncodeAll([]string{"virginica", "setosa", "versicolor"}))
	assert.Equal(t, []string{"setosa", "virginica", "versicolor"}, enc.Names())

	enc, err = NewLabelEncoderFrom(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), enc.Encode("a"))

	_, err = NewLabelEncoderFrom(map[int64]string{0: "a", 2: "b"})
	assert.Error(t, err)
	_, err = NewLabelEncoderFrom(map[int64]string{0: "a", 1: "a"})
	assert.Error(t, err)
}

func TestTable_Samples(t *testing.T) {
	table := &Table{Features: [][]float64{{1}, {2}}}
	samples, err := table.Samples([]int64{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []Sample{{Features: []float64{1}, Label: 4}, {Features: []float64{2}, Label: 5}}, samples)
	_, err = table.Samples([]int64{1})
	assert.Error(t, err)
}
