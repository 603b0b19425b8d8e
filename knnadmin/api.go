package knnadmin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/knn"
	"github.com/viant/sqlite-knn/registry"
	"modernc.org/sqlite/vtab"
)

// Module provides administrative operations via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE knn_admin USING knn_admin(op);
//	SELECT op FROM knn_admin WHERE op MATCH 'iris';            -- refit classifiers
//	SELECT op FROM knn_admin WHERE op MATCH 'invalidate:iris'; -- drop cached classifiers
//
// Refit returns a single row with op='refit:<rows>'; invalidate returns
// op='invalidated:<entries>'.
type Module struct {
	mu sync.Mutex
	db *sql.DB
}

type Table struct{ module *Module }

type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

var (
	module         = &Module{}
	registerModule sync.Once
	registerErr    error
)

// Register registers the knn_admin module and binds it to db. The knn module
// must be registered for the same db.
func Register(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("knn_admin: db is nil")
	}
	registerModule.Do(func() {
		if err := vtab.RegisterModule(db, "knn_admin", module); err != nil && !strings.Contains(err.Error(), "already registered") {
			registerErr = err
		}
	})
	if registerErr != nil {
		return registerErr
	}
	module.mu.Lock()
	module.db = db
	module.mu.Unlock()
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knn_admin: need at least 3 args")
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("knn_admin: EnableConstraintSupport failed: %w", err)
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op TEXT)", args[2])); err != nil {
		return nil, err
	}
	return &Table{module: m}, nil
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Create(ctx, args)
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	info.EstimatedCost = 1e12
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			info.EstimatedCost = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error { return nil }
func (t *Table) Destroy() error { return nil }

func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	var arg string
	switch v := vals[0].(type) {
	case string:
		arg = v
	case []byte:
		arg = string(v)
	default:
		return fmt.Errorf("knn_admin: MATCH expects dataset id as TEXT")
	}
	c.table.module.mu.Lock()
	db := c.table.module.db
	c.table.module.mu.Unlock()
	result, err := execute(context.Background(), db, arg)
	if err != nil {
		return err
	}
	c.rows = []string{result}
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knn_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}
func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

// execute runs one admin operation: "<dataset>" or "refit:<dataset>" refits,
// "invalidate:<dataset>" drops cached classifiers.
func execute(ctx context.Context, db *sql.DB, arg string) (string, error) {
	op, datasetID := "refit", strings.TrimSpace(arg)
	if i := strings.Index(datasetID, ":"); i >= 0 {
		op, datasetID = strings.ToLower(strings.TrimSpace(datasetID[:i])), strings.TrimSpace(datasetID[i+1:])
	}
	if datasetID == "" {
		return "", fmt.Errorf("knn_admin: dataset id is required")
	}
	switch op {
	case "refit":
		n, err := refit(ctx, db, datasetID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("refit:%d", n), nil
	case "invalidate":
		return fmt.Sprintf("invalidated:%d", registry.InvalidateAll(datasetID)), nil
	default:
		return "", fmt.Errorf("knn_admin: unsupported operation %q", op)
	}
}

// refit refits every cached classifier of datasetID, building a brute-force
// one when nothing is cached, and returns the number of training rows.
func refit(ctx context.Context, db *sql.DB, datasetID string) (int, error) {
	m, ok := knn.Lookup(db)
	if !ok {
		return 0, fmt.Errorf("knn_admin: knn module is not registered for this database")
	}
	registries := m.Registries()
	if len(registries) == 0 {
		r, err := m.Registry(ctx, classifier.KindBrute, 0)
		if err != nil {
			return 0, err
		}
		registries = append(registries, r)
	}
	rows := 0
	for _, r := range registries {
		n, err := r.Refit(ctx, datasetID)
		if err != nil {
			return 0, err
		}
		rows = n
	}
	return rows, nil
}
