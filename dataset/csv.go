package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVOptions controls ReadCSV.
type CSVOptions struct {
	// Header marks the first record as column names.
	Header bool
	// LabelColumn is the index of the label column; negative values count
	// from the end, so -1 selects the last column.
	LabelColumn int
	// NoLabel treats every column as a feature (query files).
	NoLabel bool
	// Comma is the field delimiter; zero selects ','.
	Comma rune
}

// Table is a parsed CSV file.
type Table struct {
	Header   []string
	Features [][]float64
	Labels   []string
}

// ReadCSV parses numeric feature rows and an optional label column. All
// records must have the same number of fields.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	table := &Table{}
	labelAt := -1
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: csv: %w", err)
		}
		line++
		if line == 1 {
			if !opts.NoLabel {
				labelAt = opts.LabelColumn
				if labelAt < 0 {
					labelAt += len(record)
				}
				if labelAt < 0 || labelAt >= len(record) {
					return nil, fmt.Errorf("dataset: csv: label column %d out of range for %d fields", opts.LabelColumn, len(record))
				}
			}
			if opts.Header {
				table.Header = append([]string(nil), record...)
				continue
			}
		}

		row := make([]float64, 0, len(record))
		for i, field := range record {
			field = strings.TrimSpace(field)
			if i == labelAt {
				table.Labels = append(table.Labels, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: csv: line %d field %d: %w", line, i+1, err)
			}
			row = append(row, v)
		}
		table.Features = append(table.Features, row)
	}
	return table, nil
}

// Samples pairs the table features with encoded labels; labels must have one
// entry per feature row.
func (t *Table) Samples(labels []int64) ([]Sample, error) {
	if len(labels) != len(t.Features) {
		return nil, fmt.Errorf("dataset: %d labels for %d rows", len(labels), len(t.Features))
	}
	out := make([]Sample, len(labels))
	for i := range labels {
		out[i] = Sample{Features: t.Features[i], Label: labels[i]}
	}
	return out, nil
}

// LabelEncoder maps label names to int64 ids in first-appearance order,
// starting at zero.
type LabelEncoder struct {
	ids   map[string]int64
	names []string
}

// NewLabelEncoder returns an empty encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{ids: map[string]int64{}}
}

// NewLabelEncoderFrom returns an encoder continuing the ids in names, as
// returned by SQLiteStore.LabelNames. Ids must be 0..len(names)-1 and names
// unique.
func NewLabelEncoderFrom(names map[int64]string) (*LabelEncoder, error) {
	e := &LabelEncoder{ids: make(map[string]int64, len(names)), names: make([]string, len(names))}
	for id, name := range names {
		if id < 0 || id >= int64(len(names)) {
			return nil, fmt.Errorf("dataset: label id %d out of range [0,%d)", id, len(names))
		}
		if prev, ok := e.ids[name]; ok {
			return nil, fmt.Errorf("dataset: label %q has ids %d and %d", name, prev, id)
		}
		e.ids[name] = id
		e.names[id] = name
	}
	return e, nil
}

// Encode returns the id of name, assigning the next id on first use.
func (e *LabelEncoder) Encode(name string) int64 {
	if id, ok := e.ids[name]; ok {
		return id
	}
	id := int64(len(e.names))
	e.ids[name] = id
	e.names = append(e.names, name)
	return id
}

// EncodeAll encodes names in order.
func (e *LabelEncoder) EncodeAll(names []string) []int64 {
	out := make([]int64, len(names))
	for i, name := range names {
		out[i] = e.Encode(name)
	}
	return out
}

// Decode returns the name assigned to id.
func (e *LabelEncoder) Decode(id int64) (string, bool) {
	if id < 0 || id >= int64(len(e.names)) {
		return "", false
	}
	return e.names[id], true
}

// Names returns the known names indexed by id.
func (e *LabelEncoder) Names() []string {
	return append([]string(nil), e.names...)
}

// IntLabels parses names as base-10 integers. It reports false when any name
// is not an integer.
func IntLabels(names []string) ([]int64, bool) {
	out := make([]int64, len(names))
	for i, name := range names {
		v, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
