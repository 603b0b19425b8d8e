package knn

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/dataset"
	"github.com/viant/sqlite-knn/registry"
	"go.uber.org/zap"
	"modernc.org/sqlite/vtab"
)

// Module implements vtab.Module for the knn virtual table. The driver keeps
// one module per process, so the module is bound to the database passed to
// the latest Register call. Training samples are read from knn_samples through
// that *sql.DB; the pool needs a connection besides the one running the query.
type Module struct {
	mu         sync.Mutex
	db         *sql.DB
	opts       moduleOptions
	store      *dataset.SQLiteStore
	registries map[registryKey]*registry.Registry
}

type registryKey struct {
	kind    classifier.Kind
	workers int
}

// Table represents a single knn virtual table instance.
type Table struct {
	module    *Module
	tableName string
	labelCol  string
	opts      tableOptions
}

const (
	idxUnconstrained = iota
	idxDatasetScan
	idxDatasetMatch
	idxDatasetMatchK
)

type resultRow struct {
	rowid   int64
	dataset string
	label   int64
	k       int
}

// Cursor scans results from a knn table.
type Cursor struct {
	table *Table
	rows  []resultRow
	pos   int
}

var (
	module         = &Module{registries: make(map[registryKey]*registry.Registry)}
	registerModule sync.Once
	registerErr    error
)

// Register registers the knn virtual table module and the knn_invalidate
// function and binds the module to db. Call it before opening connections
// that create or query knn tables.
func Register(db *sql.DB, opts ...Option) error {
	if db == nil {
		return fmt.Errorf("knn: db is nil")
	}
	o := moduleOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	registerModule.Do(func() {
		if err := vtab.RegisterModule(db, "knn", module); err != nil && !strings.Contains(err.Error(), "already registered") {
			registerErr = err
		}
	})
	if registerErr != nil {
		return registerErr
	}
	if err := registry.RegisterFunctions(); err != nil {
		return err
	}
	module.bind(db, o)
	return nil
}

// Lookup returns the module when it is bound to db.
func Lookup(db *sql.DB) (*Module, bool) {
	module.mu.Lock()
	defer module.mu.Unlock()
	if module.db == nil || module.db != db {
		return nil, false
	}
	return module, true
}

func (m *Module) bind(db *sql.DB, opts moduleOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != db {
		m.closeRegistries()
		m.store = nil
		m.db = db
	}
	m.opts = opts
}

func (m *Module) closeRegistries() {
	for key, r := range m.registries {
		_ = r.Close()
		delete(m.registries, key)
	}
}

// Store returns the samples store, creating the schema and invalidation
// triggers on first use.
func (m *Module) Store(ctx context.Context) (*dataset.SQLiteStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		return m.store, nil
	}
	if m.db == nil {
		return nil, fmt.Errorf("knn: module is not bound to a database")
	}
	if err := registry.InstallTriggers(ctx, m.db); err != nil {
		return nil, err
	}
	store, err := dataset.NewSQLiteStore(m.db)
	if err != nil {
		return nil, err
	}
	m.store = store
	return store, nil
}

// Registry returns the classifier cache for an implementation.
func (m *Module) Registry(ctx context.Context, kind classifier.Kind, workers int) (*registry.Registry, error) {
	store, err := m.Store(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := registryKey{kind: kind, workers: workers}
	if r, ok := m.registries[key]; ok {
		return r, nil
	}
	r, err := registry.New(store,
		registry.WithKind(kind),
		registry.WithWorkers(workers),
		registry.WithCacheSize(m.opts.cacheSize),
		registry.WithLogger(m.opts.logger.With(zap.String("impl", string(kind)))))
	if err != nil {
		return nil, err
	}
	m.registries[key] = r
	return r, nil
}

// Registries returns every classifier cache created so far.
func (m *Module) Registries() []*registry.Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*registry.Registry, 0, len(m.registries))
	for _, r := range m.registries {
		out = append(out, r)
	}
	return out
}

// Close releases the classifier caches and unbinds the database.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeRegistries()
	m.store = nil
	m.db = nil
	return nil
}

// Create initializes a knn table instance.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args, "CREATE")
}

// Connect attaches to an existing knn table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args, "CONNECT")
}

func (m *Module) connect(ctx vtab.Context, args []string, op string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knn: %s expects at least 3 args, got %d", op, len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("knn: EnableConstraintSupport failed: %w", err)
	}
	// Determine declared label column name from args (e.g. USING knn(species)).
	col := "label"
	optStart := 3
	if len(args) > 3 {
		a := strings.TrimSpace(args[3])
		if a != "" && !strings.Contains(a, "=") {
			col = a
			optStart = 4
		}
	}
	opts, err := parseTableOptions(args[optStart:])
	if err != nil {
		return nil, err
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s INTEGER, k INTEGER HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	// Schema and triggers are created on first use to avoid cross-connection DDL during xCreate.
	return &Table{module: m, tableName: args[2], labelCol: col, opts: opts}, nil
}

// BestIndex pushes down dataset_id equality, MATCH on the label column and
// k equality.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var (
		datasetConstraint *vtab.Constraint
		matchConstraint   *vtab.Constraint
		kConstraint       *vtab.Constraint
		nextArg           int
	)
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == 0 && c.Op == vtab.OpEQ:
			datasetConstraint = c
		case c.Column == 1 && c.Op == vtab.OpMATCH:
			matchConstraint = c
		case c.Column == 2 && c.Op == vtab.OpEQ:
			kConstraint = c
		}
	}

	if datasetConstraint == nil {
		// Filter reports the missing constraint; a high cost steers the
		// planner towards plans that supply dataset_id.
		info.IdxNum = idxUnconstrained
		info.EstimatedCost = 1e12
		return nil
	}
	datasetConstraint.ArgIndex = nextArg
	datasetConstraint.Omit = true
	nextArg++

	switch {
	case matchConstraint == nil:
		info.IdxNum = idxDatasetScan
		info.EstimatedCost = 1e4
	case kConstraint == nil:
		matchConstraint.ArgIndex = nextArg
		matchConstraint.Omit = true
		info.IdxNum = idxDatasetMatch
		info.EstimatedCost = 10
	default:
		matchConstraint.ArgIndex = nextArg
		matchConstraint.Omit = true
		nextArg++
		kConstraint.ArgIndex = nextArg
		kConstraint.Omit = true
		info.IdxNum = idxDatasetMatchK
		info.EstimatedCost = 1
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy keeps the samples; they are shared by every knn table.
func (t *Table) Destroy() error { return nil }

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	t := c.table
	ctx := context.Background()

	switch idxNum {
	case idxDatasetScan:
		if len(vals) == 0 || vals[0] == nil {
			return fmt.Errorf("knn: dataset_id argument is required")
		}
		datasetID, err := asString(vals[0])
		if err != nil {
			return err
		}
		store, err := t.module.Store(ctx)
		if err != nil {
			return err
		}
		seqs, samples, err := store.Samples(ctx, datasetID)
		if err != nil {
			return err
		}
		c.rows = make([]resultRow, len(samples))
		for i, s := range samples {
			c.rows[i] = resultRow{rowid: seqs[i], dataset: datasetID, label: s.Label, k: t.opts.k}
		}
		return nil
	case idxDatasetMatch, idxDatasetMatchK:
		if len(vals) < 2 || vals[0] == nil || vals[1] == nil {
			return fmt.Errorf("knn: dataset_id and MATCH arguments are required")
		}
		datasetID, err := asString(vals[0])
		if err != nil {
			return err
		}
		queries, err := decodeMatchArg(vals[1])
		if err != nil {
			return err
		}
		k := t.opts.k
		if idxNum == idxDatasetMatchK {
			if len(vals) < 3 {
				return fmt.Errorf("knn: missing k constraint")
			}
			if k, err = asInt(vals[2]); err != nil {
				return err
			}
			if k < 1 {
				return fmt.Errorf("knn: %w", classifier.ErrInvalidK)
			}
		}
		reg, err := t.module.Registry(ctx, t.opts.kind, t.opts.workers)
		if err != nil {
			return err
		}
		labels, err := reg.Predict(ctx, datasetID, k, queries)
		if err != nil {
			return err
		}
		c.rows = make([]resultRow, len(labels))
		for i, label := range labels {
			c.rows[i] = resultRow{rowid: int64(i + 1), dataset: datasetID, label: label, k: k}
		}
		return nil
	default:
		return fmt.Errorf("knn: dataset_id constraint required on %s(%s)", t.tableName, t.labelCol)
	}
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knn: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	row := c.rows[c.pos]
	switch col {
	case 0:
		return row.dataset, nil
	case 1:
		return row.label, nil
	case 2:
		return int64(row.k), nil
	}
	return nil, fmt.Errorf("knn: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("knn: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

func asInt(v vtab.Value) (int, error) {
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("knn: k must be an integer, got %v", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("knn: cannot parse k %q: %w", val, err)
		}
		return n, nil
	case []byte:
		return asInt(string(val))
	default:
		return 0, fmt.Errorf("knn: unsupported k type %T", v)
	}
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("knn: dataset_id is nil")
	default:
		return "", fmt.Errorf("knn: unsupported dataset_id type %T", v)
	}
}
