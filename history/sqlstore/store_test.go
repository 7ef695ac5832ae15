package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, SQLite)
	require.NoError(t, err)
	require.NoError(t, s.Ensure(context.Background()))
	return s
}

func TestNewWithConfig_RejectsUnsafeTableName(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewWithConfig(db, SQLite, Config{Table: "history; DROP TABLE x"})
	assert.Error(t, err)

	_, err = NewWithConfig(db, Dialect("oracle"), Config{})
	assert.Error(t, err)
}

func TestEnsure_Idempotent(t *testing.T) {
	s := newSQLiteStore(t)

	require.NoError(t, s.Ensure(context.Background()))
}

func TestRecordAndFindRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	applied := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	e := history.Entry{
		ID:        "add-person-age",
		Author:    "alice",
		Path:      "changelog.yaml",
		Checksum:  "deadbeef",
		AppliedAt: applied,
		ExecOrder: 3,
	}
	require.NoError(t, s.Record(ctx, e))

	got, found, err := s.Find(ctx, e.Identity())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Author, got.Author)
	assert.Equal(t, e.Path, got.Path)
	assert.Equal(t, e.Checksum, got.Checksum)
	assert.Equal(t, e.ExecOrder, got.ExecOrder)
	assert.WithinDuration(t, applied, got.AppliedAt, time.Second)
}

func TestFind_AbsentIdentity(t *testing.T) {
	s := newSQLiteStore(t)

	_, found, err := s.Find(context.Background(), sqlshift.Identity{ID: "ghost", Author: "a", Path: "p"})

	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecord_ReplacesExisting(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e := history.Entry{ID: "1", Author: "alice", Path: "p", Checksum: "aaa", ExecOrder: 0}
	require.NoError(t, s.Record(ctx, e))
	e.Checksum = "bbb"
	require.NoError(t, s.Record(ctx, e))

	got, found, err := s.Find(ctx, e.Identity())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bbb", got.Checksum)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRemove(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e := history.Entry{ID: "1", Author: "alice", Path: "p", Checksum: "aaa", ExecOrder: 0}
	require.NoError(t, s.Record(ctx, e))
	require.NoError(t, s.Remove(ctx, e.Identity()))

	_, found, err := s.Find(ctx, e.Identity())
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remove(ctx, sqlshift.Identity{ID: "ghost"}))
}

func TestEntries_OrderedByExecOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	orders := map[string]int{"a": 0, "b": 1, "c": 2}
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Record(ctx, history.Entry{
			ID: id, Author: "alice", Path: "p", Checksum: "x", ExecOrder: orders[id],
		}))
	}

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{entries[0].ID, entries[1].ID, entries[2].ID}, []string{"a", "b", "c"})
}

func TestRebind_PostgresPlaceholders(t *testing.T) {
	s := &Store{dialect: Postgres, table: DefaultTable}

	got := s.rebind("SELECT 1 FROM t WHERE a = ? AND b = ?")

	assert.Equal(t, "SELECT 1 FROM t WHERE a = $1 AND b = $2", got)

	lite := &Store{dialect: SQLite, table: DefaultTable}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
