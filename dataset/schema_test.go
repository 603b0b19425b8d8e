package dataset

import (
	"testing"

	"github.com/viant/sqlite-knn/engine"
)

// TestEnsureSchema verifies that EnsureSchema creates the samples table and
// is idempotent.
func TestEnsureSchema(t *testing.T) {
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	for i := 0; i < 2; i++ {
		if err := EnsureSchema(db); err != nil {
			t.Fatalf("EnsureSchema #%d failed: %v", i+1, err)
		}
	}
	if _, err := db.Exec(`INSERT INTO knn_samples(dataset_id, features, label) VALUES('iris', X'0000000000000000', 1)`); err != nil {
		t.Fatalf("insert into knn_samples failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := db.Exec(BumpVersionSQL, "iris"); err != nil {
			t.Fatalf("bump version #%d failed: %v", i+1, err)
		}
	}
	var version int64
	if err := db.QueryRow(`SELECT version FROM ` + VersionsTable + ` WHERE dataset_id = 'iris'`).Scan(&version); err != nil {
		t.Fatalf("read version failed: %v", err)
	}
	if version != 2 {
		t.Fatalf("version = %d, want 2", version)
	}
}
