// Command sqlshift applies, reverts and scripts schema migrations from a
// YAML changelog.
//
// Usage:
//
//	sqlshift -changelog changelog.yaml -driver postgres -dsn "$DSN" -mode apply
//
// Modes:
//
//	apply     apply change sets not yet recorded in history
//	rollback  revert the changelog's change sets in reverse order
//	script    write the SQL an apply run would execute to stdout (or -out)
//	status    list applied change sets from the history table
//
// The -metrics flag serves Prometheus metrics on the given address for the
// duration of the run.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/coordinator"
	"github.com/getpup/sqlshift/dialect"
	"github.com/getpup/sqlshift/history"
	"github.com/getpup/sqlshift/history/sqlstore"
	"github.com/getpup/sqlshift/metrics"
	"github.com/getpup/sqlshift/parser"
	"github.com/sirupsen/logrus"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	var (
		changelog    = flag.String("changelog", "changelog.yaml", "Path to the YAML changelog")
		driver       = flag.String("driver", "postgres", "Database driver: postgres, mysql, or sqlite")
		dsn          = flag.String("dsn", "", "Database connection string")
		mode         = flag.String("mode", "apply", "Run mode: apply, rollback, script, or status")
		out          = flag.String("out", "", "Output file for script mode (default: stdout)")
		historyTable = flag.String("history-table", sqlstore.DefaultTable, "Name of the history table")
		metricsAddr  = flag.String("metrics", "", "Address to serve Prometheus metrics on (e.g. :9090)")
		verbose      = flag.Bool("v", false, "Enable debug logging")
	)

	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(*changelog, *driver, *dsn, *mode, *out, *historyTable, *metricsAddr, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(changelog, driver, dsn, mode, out, historyTable, metricsAddr string, log *logrus.Logger) error {
	ctx := context.Background()

	target, err := dialect.ByName(driverToTarget(driver))
	if err != nil {
		return err
	}

	sets, err := parser.ParseFile(changelog)
	if err != nil {
		return err
	}

	if dsn == "" {
		return fmt.Errorf("-dsn is required")
	}
	db, err := sql.Open(driverName(driver), dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store, err := sqlstore.NewWithConfig(db, sqlstore.Dialect(driverToTarget(driver)), sqlstore.Config{Table: historyTable})
	if err != nil {
		return err
	}
	if err := store.Ensure(ctx); err != nil {
		return err
	}

	if metricsAddr != "" {
		srv := metrics.NewServer(metricsAddr)
		srv.Start()
		defer srv.Shutdown(ctx)
	}

	switch mode {
	case "apply", "rollback", "script":
		return runCoordinator(ctx, mode, out, store, target, db, sets, log)
	case "status":
		return printStatus(ctx, store)
	default:
		return fmt.Errorf("unsupported mode %q: use apply, rollback, script, or status", mode)
	}
}

func runCoordinator(ctx context.Context, mode, out string, store history.Store, target sqlshift.DatabaseTarget, db *sql.DB, sets []*sqlshift.ChangeSet, log *logrus.Logger) error {
	cfg := coordinator.Config{
		History: store,
		Target:  target,
		DB:      db,
		Logger:  log,
	}

	if mode == "script" {
		var sink io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create script file: %w", err)
			}
			defer f.Close()
			sink = f
		}
		cfg.DB = nil
		cfg.Sink = sink
	}

	coord, err := coordinator.New(cfg)
	if err != nil {
		return err
	}

	var report *coordinator.Report
	if mode == "rollback" {
		report, err = coord.RollbackTo(ctx, sets)
	} else {
		report, err = coord.Run(ctx, sets)
	}

	for _, drift := range report.Drift {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", drift)
	}
	for _, outcome := range report.Outcomes {
		fmt.Printf("%-13s %s\n", outcome.Status, outcome.Set)
	}
	return err
}

func printStatus(ctx context.Context, store history.Store) error {
	entries, err := store.Entries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No change sets applied")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%3d  %s  %s  %s\n", e.ExecOrder, e.AppliedAt.Format("2006-01-02 15:04:05"), e.Identity(), e.Checksum)
	}
	return nil
}

// driverName maps the user-facing driver flag to the database/sql driver.
func driverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return driver
}

// driverToTarget normalizes driver aliases to target names.
func driverToTarget(driver string) string {
	if driver == "sqlite3" {
		return "sqlite"
	}
	return driver
}
