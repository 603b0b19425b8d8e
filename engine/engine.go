package engine

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open registers the knn scalar functions and opens a SQLite database using
// the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./knn.sqlite". For in-memory
// databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterFunctions(); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn)
}

// OpenFile opens a database file in WAL mode with busyTimeout applied to
// every pooled connection, so SQL readers and the samples writer can share it.
func OpenFile(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if path == "" || path == ":memory:" {
		return nil, fmt.Errorf("engine: file path required, got %q", path)
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeout.Milliseconds())
	return Open(dsn)
}
