// Command knn imports labeled CSV data into SQLite, classifies query rows
// against stored datasets, benchmarks classifier implementations and runs
// SQL against the knn virtual tables.
//
// Usage:
//
//	knn [-config knn.yaml] import  -dataset iris -csv iris.csv -header
//	knn [-config knn.yaml] predict -dataset iris -csv queries.csv
//	knn [-config knn.yaml] bench   -csv iris.csv -header -repeat 10
//	knn [-config knn.yaml] sql     -query "SELECT label FROM iris WHERE dataset_id='iris' AND label MATCH '5.1,3.5,1.4,0.2'"
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/viant/sqlite-knn/engine"
	"github.com/viant/sqlite-knn/knn"
	"github.com/viant/sqlite-knn/knnadmin"
	"github.com/viant/sqlite-knn/registry"
	"go.uber.org/zap"
)

type app struct {
	config *Config
	logger *zap.Logger
	stdout io.Writer
	stdin  io.Reader
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "import", usage: "import labeled CSV rows into a dataset", run: runImport},
	{name: "predict", usage: "predict labels of CSV query rows against a dataset", run: runPredict},
	{name: "bench", usage: "benchmark classifier implementations", run: runBench},
	{name: "sql", usage: "run a SQL statement with knn modules registered", run: runSQL},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("knn", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "knn.yaml", "YAML configuration file")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: knn [-config file] <command> [flags]\n\ncommands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-8s %s\n", c.name, c.usage)
		}
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	explicit := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	config, err := loadConfig(*configPath, explicit)
	if err != nil {
		fmt.Fprintf(stderr, "knn: failed to load config: %v\n", err)
		return 1
	}
	logger, err := newLogger(config)
	if err != nil {
		fmt.Fprintf(stderr, "knn: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	name := flags.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		a := &app{config: config, logger: logger.With(zap.String("command", name)), stdout: stdout, stdin: stdin}
		if err := c.run(ctx, a, flags.Args()[1:]); err != nil {
			a.logger.Error("command failed", zap.Error(err))
			fmt.Fprintf(stderr, "knn %s: %v\n", name, err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(stderr, "knn: unknown command %q\n", name)
	flags.Usage()
	return 2
}

// openDB registers the SQL functions and virtual table modules, opens the
// database and installs the samples schema with its invalidation triggers.
func (a *app) openDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := registry.RegisterFunctions(); err != nil {
		return nil, err
	}
	db, err := engine.OpenFile(path, 5*time.Second)
	if err != nil {
		return nil, err
	}
	if err := knn.Register(db, knn.WithLogger(a.logger)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := knnadmin.Register(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := registry.InstallTriggers(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	a.logger.Debug("database opened", zap.String("path", path))
	return db, nil
}

func (a *app) closeDB(db *sql.DB) {
	if m, ok := knn.Lookup(db); ok {
		_ = m.Close()
	}
	if err := db.Close(); err != nil {
		a.logger.Warn("database close failed", zap.Error(err))
	}
}

// openInput opens path for reading; "-" selects stdin.
func (a *app) openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(a.stdin), nil
	}
	return os.Open(path)
}
