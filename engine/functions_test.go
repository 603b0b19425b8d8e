package engine

import (
	"math"
	"testing"

	"github.com/viant/sqlite-knn/dataset"
)

func TestRegisterFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	if err := RegisterFunctions(); err != nil {
		t.Fatalf("RegisterFunctions failed: %v", err)
	}
	if err := RegisterFunctions(); err != nil {
		t.Fatalf("second RegisterFunctions failed: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	zero := dataset.EncodeFeatures([]float64{0, 0})
	threeFour := dataset.EncodeFeatures([]float64{3, 4})

	var dist float64
	if err := db.QueryRow(`SELECT knn_l2(?, ?)`, zero, threeFour).Scan(&dist); err != nil {
		t.Fatalf("knn_l2 query failed: %v", err)
	}
	if math.Abs(dist-5) > 1e-12 {
		t.Fatalf("knn_l2 = %v, want 5", dist)
	}

	var dim int64
	if err := db.QueryRow(`SELECT knn_dim(?)`, threeFour).Scan(&dim); err != nil {
		t.Fatalf("knn_dim query failed: %v", err)
	}
	if dim != 2 {
		t.Fatalf("knn_dim = %d, want 2", dim)
	}

	if _, err := db.Exec(`SELECT knn_l2(?, ?)`, zero, dataset.EncodeFeatures([]float64{1})); err == nil {
		t.Fatalf("expected dim mismatch error from knn_l2")
	}
}

// TestSQLOrderByKnnL2 orders stored samples by distance to a query blob.
func TestSQLOrderByKnnL2(t *testing.T) {
	if err := RegisterFunctions(); err != nil {
		t.Fatalf("RegisterFunctions: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := dataset.EnsureSchema(db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO knn_samples(dataset_id, features, label) VALUES
		('d', ?, 1),
		('d', ?, 2)`, dataset.EncodeFeatures([]float64{10, 10}), dataset.EncodeFeatures([]float64{1, 0})); err != nil {
		t.Fatalf("insert into knn_samples failed: %v", err)
	}

	rows, err := db.Query(`SELECT label FROM knn_samples ORDER BY knn_l2(features, ?)`, dataset.EncodeFeatures([]float64{0, 0}))
	if err != nil {
		t.Fatalf("ORDER BY knn_l2 query failed: %v", err)
	}
	defer rows.Close()
	var labels []int64
	for rows.Next() {
		var label int64
		if err := rows.Scan(&label); err != nil {
			t.Fatalf("scan label failed: %v", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err: %v", err)
	}
	if len(labels) != 2 || labels[0] != 2 || labels[1] != 1 {
		t.Fatalf("ORDER BY knn_l2 returned labels=%v, want [2 1]", labels)
	}
}
