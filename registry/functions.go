package registry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/sqlite-knn/dataset"
	sqlite "modernc.org/sqlite"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterFunctions registers knn_invalidate(dataset_id TEXT) → INT with the
// driver. Only connections opened after this call see the function, so it
// must run before the database used with InstallTriggers is opened.
func RegisterFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterScalarFunction("knn_invalidate", 1, invalidateFunc)
	})
	return registerErr
}

// invalidateFunc implements SQL scalar knn_invalidate(dataset_id TEXT) → INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return int64(0), nil
	}
	var datasetID string
	switch v := args[0].(type) {
	case string:
		datasetID = v
	case []byte:
		datasetID = string(v)
	default:
		return int64(0), nil
	}
	if datasetID == "" {
		return int64(0), nil
	}
	return int64(InvalidateAll(datasetID)), nil
}

// TriggerDDL returns AFTER INSERT/UPDATE/DELETE trigger statements for table.
// Each trigger advances the dataset version in knn_versions, committed with
// the write, and calls knn_invalidate for immediate eviction in this process.
// UPDATE touches both the old and the new dataset to cover rows moved
// between datasets.
func TriggerDDL(table string) []string {
	base := sanitizeIdentifier("trg_knn_" + table)
	touch := func(alias string) string {
		bump := strings.Replace(dataset.BumpVersionSQL, "?", alias+".dataset_id", 1)
		return fmt.Sprintf("%s;\n    SELECT knn_invalidate(%s.dataset_id);", bump, alias)
	}
	insertTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s
BEGIN
    %s
END;`, base, table, touch("NEW"))

	updateTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s
BEGIN
    %s
    %s
END;`, base, table, touch("NEW"), touch("OLD"))

	deleteTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s
BEGIN
    %s
END;`, base, table, touch("OLD"))

	return []string{insertTrig, updateTrig, deleteTrig}
}

// InstallTriggers creates the samples schema and its invalidation triggers.
func InstallTriggers(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("registry: db is nil")
	}
	if err := RegisterFunctions(); err != nil {
		return err
	}
	if err := dataset.EnsureSchema(db); err != nil {
		return err
	}
	for _, stmt := range TriggerDDL(dataset.SamplesTable) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("registry: install triggers: %w", err)
		}
	}
	return nil
}

func sanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
