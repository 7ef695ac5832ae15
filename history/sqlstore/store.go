// Package sqlstore provides a database/sql backed history store. One
// implementation serves PostgreSQL, MySQL/MariaDB and SQLite: the dialect
// picks the DDL flavor and placeholder style. The driver itself is imported
// by the caller (typically the cmd binary), never here.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/history"
)

// Dialect selects the SQL flavor for the history table.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// DefaultTable is the history table name when none is configured.
const DefaultTable = "schema_history"

var tableNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Config configures the SQL history store.
type Config struct {
	// Table is the history table name (default: schema_history). Must be
	// a plain identifier; it is interpolated into DDL.
	Table string
}

// Store is a history.Store over a live database connection.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

var _ history.Store = (*Store)(nil)

// New creates a store for the given connection and dialect with the default
// table name.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	return NewWithConfig(db, dialect, Config{})
}

// NewWithConfig creates a store with a custom table name.
func NewWithConfig(db *sql.DB, dialect Dialect, cfg Config) (*Store, error) {
	switch dialect {
	case Postgres, MySQL, SQLite:
	default:
		return nil, fmt.Errorf("unknown history dialect %q", dialect)
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("history table name %q must start with a letter and contain only letters, numbers, and underscores", table)
	}
	return &Store{db: db, dialect: dialect, table: table}, nil
}

// Ensure creates the history table if it does not exist.
func (s *Store) Ensure(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case Postgres:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT NOT NULL,
    author TEXT NOT NULL,
    path TEXT NOT NULL,
    checksum VARCHAR(64) NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL,
    exec_order INT NOT NULL,
    PRIMARY KEY (id, author, path)
)`, s.table)
	case MySQL:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR(191) NOT NULL,
    author VARCHAR(191) NOT NULL,
    path VARCHAR(191) NOT NULL,
    checksum VARCHAR(64) NOT NULL,
    applied_at DATETIME(6) NOT NULL,
    exec_order INT NOT NULL,
    PRIMARY KEY (id, author, path)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, s.table)
	case SQLite:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT NOT NULL,
    author TEXT NOT NULL,
    path TEXT NOT NULL,
    checksum TEXT NOT NULL,
    applied_at DATETIME NOT NULL,
    exec_order INTEGER NOT NULL,
    PRIMARY KEY (id, author, path)
)`, s.table)
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to the dialect's style.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Find returns the record for an identity, and whether one exists.
func (s *Store) Find(ctx context.Context, id sqlshift.Identity) (history.Entry, bool, error) {
	query := s.rebind(fmt.Sprintf(`SELECT id, author, path, checksum, applied_at, exec_order
		FROM %s WHERE id = ? AND author = ? AND path = ?`, s.table))

	var e history.Entry
	err := s.db.QueryRowContext(ctx, query, id.ID, id.Author, id.Path).Scan(
		&e.ID, &e.Author, &e.Path, &e.Checksum, &e.AppliedAt, &e.ExecOrder,
	)
	if err == sql.ErrNoRows {
		return history.Entry{}, false, nil
	}
	if err != nil {
		return history.Entry{}, false, fmt.Errorf("failed to query history: %w", err)
	}
	return e, true, nil
}

// Record persists an entry, replacing any existing record for the identity.
func (s *Store) Record(ctx context.Context, e history.Entry) error {
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now().UTC()
	}

	del := s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND author = ? AND path = ?`, s.table))
	if _, err := s.db.ExecContext(ctx, del, e.ID, e.Author, e.Path); err != nil {
		return fmt.Errorf("failed to replace history record: %w", err)
	}

	ins := s.rebind(fmt.Sprintf(`INSERT INTO %s (id, author, path, checksum, applied_at, exec_order)
		VALUES (?, ?, ?, ?, ?, ?)`, s.table))
	if _, err := s.db.ExecContext(ctx, ins, e.ID, e.Author, e.Path, e.Checksum, e.AppliedAt, e.ExecOrder); err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// Remove deletes the record for an identity.
func (s *Store) Remove(ctx context.Context, id sqlshift.Identity) error {
	query := s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND author = ? AND path = ?`, s.table))
	if _, err := s.db.ExecContext(ctx, query, id.ID, id.Author, id.Path); err != nil {
		return fmt.Errorf("failed to remove history entry: %w", err)
	}
	return nil
}

// Entries returns all records ordered by execution order.
func (s *Store) Entries(ctx context.Context) ([]history.Entry, error) {
	query := fmt.Sprintf(`SELECT id, author, path, checksum, applied_at, exec_order
		FROM %s ORDER BY exec_order`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.ID, &e.Author, &e.Path, &e.Checksum, &e.AppliedAt, &e.ExecOrder); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
