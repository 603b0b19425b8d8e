package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/viant/sqlite-knn/bench"
	"github.com/viant/sqlite-knn/classifier"
	"github.com/viant/sqlite-knn/dataset"
	"github.com/viant/sqlite-knn/registry"
	"go.uber.org/zap"
)

type csvFlags struct {
	path     string
	header   bool
	labelCol int
	comma    string
}

func (c *csvFlags) register(flags *flag.FlagSet, withLabel bool) {
	flags.StringVar(&c.path, "csv", "", "CSV file, - for stdin")
	flags.BoolVar(&c.header, "header", false, "first CSV record holds column names")
	flags.StringVar(&c.comma, "comma", ",", "CSV field delimiter")
	if withLabel {
		flags.IntVar(&c.labelCol, "label-col", -1, "label column index, negative counts from the end")
	}
}

func (c *csvFlags) read(a *app, noLabel bool) (*dataset.Table, error) {
	if c.path == "" {
		return nil, fmt.Errorf("-csv is required")
	}
	input, err := a.openInput(c.path)
	if err != nil {
		return nil, err
	}
	defer input.Close()
	opts := dataset.CSVOptions{Header: c.header, LabelColumn: c.labelCol, NoLabel: noLabel}
	if c.comma != "" {
		opts.Comma = []rune(c.comma)[0]
	}
	return dataset.ReadCSV(input, opts)
}

// encodeLabels keeps integer labels as they are and numbers other names in
// first-appearance order; names is nil for integer labels.
func encodeLabels(raw []string) (labels []int64, names []string) {
	if ints, ok := dataset.IntLabels(raw); ok {
		return ints, nil
	}
	encoder := dataset.NewLabelEncoder()
	return encoder.EncodeAll(raw), encoder.Names()
}

// datasetLabels encodes raw labels for appending to datasetID. Integer
// labels are stored as they are; named labels continue the numbering stored
// in knn_labels. A dataset keeps the label form of its first import.
func datasetLabels(ctx context.Context, store *dataset.SQLiteStore, datasetID string, raw []string) ([]int64, []string, error) {
	stored, err := store.LabelNames(ctx, datasetID)
	if err != nil {
		return nil, nil, err
	}
	count, err := store.Count(ctx, datasetID)
	if err != nil {
		return nil, nil, err
	}
	ints, isInt := dataset.IntLabels(raw)
	switch {
	case len(stored) == 0 && isInt:
		return ints, nil, nil
	case len(stored) == 0 && count > 0:
		return nil, nil, fmt.Errorf("dataset %s holds integer labels, got named labels", datasetID)
	case len(stored) > 0 && isInt && len(raw) > 0:
		return nil, nil, fmt.Errorf("dataset %s holds named labels, got integer labels", datasetID)
	}
	encoder, err := dataset.NewLabelEncoderFrom(stored)
	if err != nil {
		return nil, nil, err
	}
	return encoder.EncodeAll(raw), encoder.Names(), nil
}

func runImport(ctx context.Context, a *app, args []string) error {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	dbPath := flags.String("db", a.config.Database.Path, "SQLite database path")
	datasetID := flags.String("dataset", "", "dataset id")
	replace := flags.Bool("replace", false, "remove existing samples of the dataset first")
	var csv csvFlags
	csv.register(flags, true)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *datasetID == "" {
		return fmt.Errorf("-dataset is required")
	}
	table, err := csv.read(a, false)
	if err != nil {
		return err
	}

	db, err := a.openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer a.closeDB(db)
	store, err := dataset.NewSQLiteStore(db)
	if err != nil {
		return err
	}
	if *replace {
		removed, err := store.Remove(ctx, *datasetID)
		if err != nil {
			return err
		}
		a.logger.Info("dataset cleared", zap.String("dataset", *datasetID), zap.Int64("removed", removed))
	}
	labels, names, err := datasetLabels(ctx, store, *datasetID, table.Labels)
	if err != nil {
		return err
	}
	samples, err := table.Samples(labels)
	if err != nil {
		return err
	}
	if names != nil {
		if err := store.SaveLabelNames(ctx, *datasetID, names); err != nil {
			return err
		}
	}
	seqs, err := store.AddSamples(ctx, *datasetID, samples)
	if err != nil {
		return err
	}
	a.logger.Info("samples imported", zap.String("dataset", *datasetID), zap.Int("rows", len(seqs)), zap.Int("classes", len(names)))
	fmt.Fprintf(a.stdout, "imported %d samples into %s\n", len(seqs), *datasetID)
	return nil
}

func runPredict(ctx context.Context, a *app, args []string) error {
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	dbPath := flags.String("db", a.config.Database.Path, "SQLite database path")
	datasetID := flags.String("dataset", "", "dataset id")
	k := flags.Int("k", a.config.Classifier.K, "number of neighbors")
	kindName := flags.String("kind", a.config.Classifier.Kind, "classifier: brute, parallel or compact")
	workers := flags.Int("workers", a.config.Classifier.Workers, "parallel workers, 0 for GOMAXPROCS")
	var csv csvFlags
	csv.register(flags, false)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *datasetID == "" {
		return fmt.Errorf("-dataset is required")
	}
	if *k < 1 {
		return fmt.Errorf("-k %d: %w", *k, classifier.ErrInvalidK)
	}
	kind, err := classifier.ParseKind(*kindName)
	if err != nil {
		return err
	}
	table, err := csv.read(a, true)
	if err != nil {
		return err
	}

	db, err := a.openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer a.closeDB(db)
	store, err := dataset.NewSQLiteStore(db)
	if err != nil {
		return err
	}
	reg, err := registry.New(store, registry.WithKind(kind), registry.WithK(*k), registry.WithWorkers(*workers), registry.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer reg.Close()

	started := time.Now()
	labels, err := reg.Predict(ctx, *datasetID, *k, table.Features)
	if err != nil {
		return err
	}
	names, err := store.LabelNames(ctx, *datasetID)
	if err != nil {
		return err
	}
	for _, label := range labels {
		if name, ok := names[label]; ok {
			fmt.Fprintln(a.stdout, name)
			continue
		}
		fmt.Fprintln(a.stdout, label)
	}
	a.logger.Info("predicted", zap.String("dataset", *datasetID), zap.Int("queries", len(labels)), zap.Duration("elapsed", time.Since(started)))
	return nil
}

func runBench(ctx context.Context, a *app, args []string) error {
	flags := flag.NewFlagSet("bench", flag.ContinueOnError)
	dbPath := flags.String("db", a.config.Database.Path, "SQLite database path, used with -dataset")
	datasetID := flags.String("dataset", "", "dataset id to load instead of -csv")
	k := flags.Int("k", a.config.Classifier.K, "number of neighbors")
	workers := flags.Int("workers", a.config.Classifier.Workers, "parallel workers, 0 for GOMAXPROCS")
	repeat := flags.Int("repeat", a.config.Bench.Repeat, "timed fit+predict runs per implementation")
	testRatio := flags.Float64("test-ratio", a.config.Bench.TestRatio, "held-out share for a shuffled train/test split, 0 to skip")
	seed := flags.Int64("seed", a.config.Bench.Seed, "shuffle seed for the held-out split")
	var csv csvFlags
	csv.register(flags, true)
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *k < 1 {
		return fmt.Errorf("-k %d: %w", *k, classifier.ErrInvalidK)
	}
	features, labels, err := a.benchData(ctx, &csv, *dbPath, *datasetID)
	if err != nil {
		return err
	}
	a.logger.Info("benchmark data loaded", zap.Int("rows", len(features)))

	out := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(out, "IMPL\tACCURACY\tTOTAL\tPER RUN\tEQUALS BRUTE")
	var reference []int64
	for _, kind := range classifier.Kinds() {
		factory := func() (classifier.Classifier[int64], error) {
			return registry.NewClassifier[int64](kind, *k, *workers)
		}
		result, err := bench.Run(ctx, string(kind), factory, features, labels, *repeat)
		if err != nil {
			return err
		}
		equal := "-"
		if reference == nil {
			reference = result.Predicted
		} else if i := bench.Compare(reference, result.Predicted); i >= 0 {
			equal = fmt.Sprintf("differs at row %d", i)
		} else {
			equal = "yes"
		}
		fmt.Fprintf(out, "%s\t%.4f\t%s\t%s\t%s\n", kind, result.Accuracy, result.Elapsed, result.PerRun(), equal)
		a.logger.Debug("benchmark run", zap.String("impl", string(kind)), zap.Float64("accuracy", result.Accuracy), zap.Duration("elapsed", result.Elapsed))
	}
	if err := out.Flush(); err != nil {
		return err
	}

	if *testRatio <= 0 {
		return nil
	}
	shuffledX := append([][]float64(nil), features...)
	shuffledY := append([]int64(nil), labels...)
	if err := bench.Shuffle(shuffledX, shuffledY, *seed); err != nil {
		return err
	}
	trainX, trainY, testX, testY, err := bench.Split(shuffledX, shuffledY, *testRatio)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\nheld-out accuracy (%d train, %d test):\n", len(trainX), len(testX))
	for _, kind := range classifier.Kinds() {
		factory := func() (classifier.Classifier[int64], error) {
			return registry.NewClassifier[int64](kind, *k, *workers)
		}
		_, acc, err := bench.Holdout(factory, trainX, trainY, testX, testY)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "  %-8s %.4f\n", kind, acc)
	}
	return nil
}

func (a *app) benchData(ctx context.Context, csv *csvFlags, dbPath, datasetID string) ([][]float64, []int64, error) {
	if datasetID == "" {
		table, err := csv.read(a, false)
		if err != nil {
			return nil, nil, err
		}
		labels, _ := encodeLabels(table.Labels)
		return table.Features, labels, nil
	}
	db, err := a.openDB(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer a.closeDB(db)
	store, err := dataset.NewSQLiteStore(db)
	if err != nil {
		return nil, nil, err
	}
	return store.Load(ctx, datasetID)
}

func runSQL(ctx context.Context, a *app, args []string) error {
	flags := flag.NewFlagSet("sql", flag.ContinueOnError)
	dbPath := flags.String("db", a.config.Database.Path, "SQLite database path")
	query := flags.String("query", "", "SQL statement")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*query) == "" {
		return fmt.Errorf("-query is required")
	}
	db, err := a.openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer a.closeDB(db)

	// Virtual table modules are attached to the first connection of the
	// process, which openDB left idle in the pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	rows, err := conn.QueryContext(ctx, *query)
	if err != nil {
		return err
	}
	defer rows.Close()
	return a.printRows(rows)
}

func (a *app) printRows(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	out := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(out, strings.Join(columns, "\t"))
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			switch val := v.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = fmt.Sprintf("x'%x'", val)
			default:
				cells[i] = fmt.Sprint(val)
			}
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return out.Flush()
}
