package knn

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/sqlite-knn/dataset"
)

// decodeMatchArg converts a MATCH argument into query rows.
func decodeMatchArg(v interface{}) ([][]float64, error) {
	switch val := v.(type) {
	case []byte:
		row, err := dataset.DecodeFeatures(val)
		if err != nil {
			return nil, fmt.Errorf("knn: %w", err)
		}
		if len(row) == 0 {
			return nil, fmt.Errorf("knn: MATCH blob is empty")
		}
		return [][]float64{row}, nil
	case string:
		return decodeMatchString(val)
	default:
		return nil, fmt.Errorf("knn: expected MATCH arg as BLOB or string, got %T", v)
	}
}

func decodeMatchString(raw string) ([][]float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("knn: MATCH string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var rows [][]float64
		if err := json.Unmarshal([]byte(s), &rows); err == nil && len(rows) > 0 {
			return rows, nil
		}
		var row []float64
		if err := json.Unmarshal([]byte(s), &row); err == nil && len(row) > 0 {
			return [][]float64{row}, nil
		}
		return nil, fmt.Errorf("knn: invalid MATCH JSON %q", s)
	}
	rows, ok, err := parseCSVRows(s)
	if err != nil {
		return nil, err
	}
	if ok {
		return rows, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		if row, err := dataset.DecodeFeatures(b); err == nil && len(row) > 0 {
			return [][]float64{row}, nil
		}
	}
	return nil, fmt.Errorf("knn: MATCH string must be a JSON/CSV float list or a base64-encoded features blob")
}

// parseCSVRows parses rows separated by ';' or newlines with ',' separated
// values. It reports false when any value is not a number and fails on an
// empty value inside a row.
func parseCSVRows(s string) ([][]float64, bool, error) {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' })
	var rows [][]float64
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		row := make([]float64, 0, len(parts))
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, false, fmt.Errorf("knn: MATCH row %d: empty value at position %d", len(rows), i)
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, false, nil
			}
			row = append(row, f)
		}
		rows = append(rows, row)
	}
	return rows, len(rows) > 0, nil
}
