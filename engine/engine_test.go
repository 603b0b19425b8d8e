package engine

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestOpenInMemory verifies that we can open an in-memory SQLite database
// and call the knn scalar functions on it.
func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t(x INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t(x) VALUES (1),(2),(3)"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}
	var dim interface{}
	if err := db.QueryRow("SELECT knn_dim(NULL)").Scan(&dim); err != nil {
		t.Fatalf("knn_dim not available: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	if _, err := OpenFile(":memory:", time.Second); err == nil {
		t.Fatalf("expected error for in-memory path")
	}

	db, err := OpenFile(filepath.Join(t.TempDir(), "knn.sqlite"), 2*time.Second)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 2000 {
		t.Fatalf("busy_timeout = %d, want 2000", timeout)
	}
}
