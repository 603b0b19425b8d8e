package dataset

import (
	"database/sql"
)

const (
	// SamplesTable is the name of the table holding training samples.
	SamplesTable = "knn_samples"

	// VersionsTable holds the per-dataset change counter.
	VersionsTable = "knn_versions"
)

// BumpVersionSQL advances the version of the dataset bound to its single
// parameter, creating the counter on first write.
const BumpVersionSQL = `INSERT INTO knn_versions(dataset_id, version) VALUES(?, 1)
ON CONFLICT(dataset_id) DO UPDATE SET version = version + 1`

const samplesSchema = `
CREATE TABLE IF NOT EXISTS knn_samples (
    seq INTEGER PRIMARY KEY,
    dataset_id TEXT NOT NULL,
    features BLOB NOT NULL,
    label INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS knn_samples_dataset ON knn_samples(dataset_id, seq);
CREATE TABLE IF NOT EXISTS knn_labels (
    dataset_id TEXT NOT NULL,
    label INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY(dataset_id, label)
);
CREATE TABLE IF NOT EXISTS knn_versions (
    dataset_id TEXT PRIMARY KEY,
    version INTEGER NOT NULL
);
`

// EnsureSchema creates the samples table, its dataset index, the label
// names table and the versions table if they do not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(samplesSchema)
	return err
}
