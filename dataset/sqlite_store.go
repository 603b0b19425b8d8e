package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/sqlite-knn/classifier"
)

// SQLiteStore keeps labeled samples in the knn_samples table. Samples of one
// dataset are returned in insertion order, which is the training order seen
// by classifiers.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the samples
// schema exists in the provided database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("dataset: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// AddSamples appends samples to datasetID in one transaction. Every sample
// must have the feature count of the samples already stored for the dataset.
func (s *SQLiteStore) AddSamples(ctx context.Context, datasetID string, samples []Sample) ([]int64, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("dataset: AddSamples called with empty dataset id")
	}
	if len(samples) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	dim, err := storedDim(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}
	if dim < 0 {
		dim = len(samples[0].Features)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO knn_samples(dataset_id, features, label) VALUES(?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	seqs := make([]int64, 0, len(samples))
	for i, sample := range samples {
		if len(sample.Features) == 0 {
			return nil, fmt.Errorf("dataset: sample %d has no features", i)
		}
		if len(sample.Features) != dim {
			return nil, fmt.Errorf("dataset: %s: %w", datasetID, &classifier.DimensionError{Axis: classifier.AxisColumns, Row: i, Expected: dim, Actual: len(sample.Features)})
		}
		res, err := stmt.ExecContext(ctx, datasetID, EncodeFeatures(sample.Features), sample.Label)
		if err != nil {
			return nil, err
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	if _, err := tx.ExecContext(ctx, BumpVersionSQL, datasetID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return seqs, nil
}

// storedDim returns the feature count of the first stored sample of
// datasetID, or -1 when the dataset is empty.
func storedDim(ctx context.Context, tx *sql.Tx, datasetID string) (int, error) {
	var size int
	err := tx.QueryRowContext(ctx, `SELECT length(features) FROM knn_samples WHERE dataset_id = ? ORDER BY seq LIMIT 1`, datasetID).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return size / 8, nil
}

// Load returns the features and labels of datasetID ordered by sequence.
// An unknown dataset yields empty slices and no error.
func (s *SQLiteStore) Load(ctx context.Context, datasetID string) ([][]float64, []int64, error) {
	var features [][]float64
	var labels []int64
	err := s.scan(ctx, datasetID, func(_ int64, values []float64, label int64) {
		features = append(features, values)
		labels = append(labels, label)
	})
	if err != nil {
		return nil, nil, err
	}
	return features, labels, nil
}

// LoadVersion returns the features, labels and version of datasetID read
// from one snapshot.
func (s *SQLiteStore) LoadVersion(ctx context.Context, datasetID string) ([][]float64, []int64, int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()
	version, err := readVersion(ctx, tx, datasetID)
	if err != nil {
		return nil, nil, 0, err
	}
	var features [][]float64
	var labels []int64
	err = scanSamples(ctx, tx, datasetID, func(_ int64, values []float64, label int64) {
		features = append(features, values)
		labels = append(labels, label)
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return features, labels, version, nil
}

// Version returns the committed version of datasetID, 0 when the dataset
// was never written. Every committed write advances it.
func (s *SQLiteStore) Version(ctx context.Context, datasetID string) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return readVersion(ctx, s.db, datasetID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func readVersion(ctx context.Context, q queryer, datasetID string) (int64, error) {
	var version int64
	err := q.QueryRowContext(ctx, `SELECT version FROM knn_versions WHERE dataset_id = ?`, datasetID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

// Samples returns the samples of datasetID with their sequence numbers.
func (s *SQLiteStore) Samples(ctx context.Context, datasetID string) ([]int64, []Sample, error) {
	var seqs []int64
	var samples []Sample
	err := s.scan(ctx, datasetID, func(seq int64, values []float64, label int64) {
		seqs = append(seqs, seq)
		samples = append(samples, Sample{Features: values, Label: label})
	})
	if err != nil {
		return nil, nil, err
	}
	return seqs, samples, nil
}

func (s *SQLiteStore) scan(ctx context.Context, datasetID string, fn func(seq int64, features []float64, label int64)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return scanSamples(ctx, s.db, datasetID, fn)
}

func scanSamples(ctx context.Context, q queryer, datasetID string, fn func(seq int64, features []float64, label int64)) error {
	rows, err := q.QueryContext(ctx, `SELECT seq, features, label FROM knn_samples WHERE dataset_id = ? ORDER BY seq`, datasetID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var seq, label int64
		var blob []byte
		if err := rows.Scan(&seq, &blob, &label); err != nil {
			return err
		}
		values, err := DecodeFeatures(blob)
		if err != nil {
			return fmt.Errorf("dataset: %s: sample %d: %w", datasetID, seq, err)
		}
		fn(seq, values, label)
	}
	return rows.Err()
}

// Count returns the number of samples stored for datasetID.
func (s *SQLiteStore) Count(ctx context.Context, datasetID string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knn_samples WHERE dataset_id = ?`, datasetID).Scan(&n)
	return n, err
}

// Datasets lists the distinct dataset ids in lexical order.
func (s *SQLiteStore) Datasets(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT dataset_id FROM knn_samples ORDER BY dataset_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SaveLabelNames stores the display names of encoded labels, indexed by
// label id, replacing existing names of datasetID.
func (s *SQLiteStore) SaveLabelNames(ctx context.Context, datasetID string, names []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO knn_labels(dataset_id, label, name) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, name := range names {
		if _, err := stmt.ExecContext(ctx, datasetID, int64(i), name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LabelNames returns the stored display names of datasetID keyed by label.
func (s *SQLiteStore) LabelNames(ctx context.Context, datasetID string) (map[int64]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT label, name FROM knn_labels WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]string{}
	for rows.Next() {
		var label int64
		var name string
		if err := rows.Scan(&label, &name); err != nil {
			return nil, err
		}
		out[label] = name
	}
	return out, rows.Err()
}

// Remove deletes all samples and label names of datasetID.
func (s *SQLiteStore) Remove(ctx context.Context, datasetID string) (int64, error) {
	if datasetID == "" {
		return 0, fmt.Errorf("dataset: Remove called with empty dataset id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx, `DELETE FROM knn_samples WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM knn_labels WHERE dataset_id = ?`, datasetID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, BumpVersionSQL, datasetID); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// Ensure SQLiteStore satisfies the Store and VersionedLoader interfaces.
var (
	_ Store           = (*SQLiteStore)(nil)
	_ VersionedLoader = (*SQLiteStore)(nil)
)
