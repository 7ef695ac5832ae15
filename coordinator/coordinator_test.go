package coordinator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/change"
	"github.com/getpup/sqlshift/dialect"
	"github.com/getpup/sqlshift/history"
	"github.com/getpup/sqlshift/history/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB records executed statements and can fail on a substring match.
type fakeDB struct {
	executed []string
	failOn   string
}

func (db *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if db.failOn != "" && strings.Contains(query, db.failOn) {
		return nil, fmt.Errorf("constraint violation near %q", query)
	}
	db.executed = append(db.executed, query)
	return nil, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func addColumnSet(t *testing.T, id, table, column string) *sqlshift.ChangeSet {
	t.Helper()
	c := &change.AddColumn{Table: table, Column: sqlshift.ColumnDef{Name: column, Type: "int"}}
	require.NoError(t, c.SetUp())
	cs := &sqlshift.ChangeSet{ID: id, Author: "alice", Path: "changelog.yaml"}
	cs.Add(c)
	return cs
}

func dropTableSet(t *testing.T, id, table string) *sqlshift.ChangeSet {
	t.Helper()
	c := &change.DropTable{Table: table}
	require.NoError(t, c.SetUp())
	cs := &sqlshift.ChangeSet{ID: id, Author: "alice", Path: "changelog.yaml"}
	cs.Add(c)
	return cs
}

func newLiveCoordinator(t *testing.T, store history.Store, db sqlshift.Execer) *Coordinator {
	t.Helper()
	coord, err := New(Config{
		History: store,
		Target:  dialect.Postgres{},
		DB:      db,
		Logger:  quietLogger(),
	})
	require.NoError(t, err)
	return coord
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Target: dialect.Postgres{}, DB: &fakeDB{}})
	assert.Error(t, err, "missing history")

	_, err = New(Config{History: memory.New(), DB: &fakeDB{}})
	assert.Error(t, err, "missing target")

	_, err = New(Config{History: memory.New(), Target: dialect.Postgres{}})
	assert.Error(t, err, "missing DB and sink")
}

func TestRun_AppliesInOrderAndRecordsHistory(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)

	sets := []*sqlshift.ChangeSet{
		addColumnSet(t, "1", "person", "age"),
		addColumnSet(t, "2", "person", "height"),
	}

	report, err := coord.Run(context.Background(), sets)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(StatusApplied))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{
		`ALTER TABLE "person" ADD COLUMN "age" INTEGER`,
		`ALTER TABLE "person" ADD COLUMN "height" INTEGER`,
	}, db.executed)

	entries, err := store.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, sets[0].Checksum().String(), entries[0].Checksum)
	assert.Equal(t, 0, entries[0].ExecOrder)
	assert.Equal(t, 1, entries[1].ExecOrder)
}

func TestRun_SkipsAlreadyAppliedSets(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)
	sets := []*sqlshift.ChangeSet{addColumnSet(t, "1", "person", "age")}

	_, err := coord.Run(context.Background(), sets)
	require.NoError(t, err)
	executedOnce := len(db.executed)

	report, err := coord.Run(context.Background(), sets)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusSkipped))
	assert.Equal(t, 0, report.Count(StatusApplied))
	assert.Len(t, db.executed, executedOnce, "already-applied sets must never re-execute")
}

func TestRun_FailureStopsRunAndReportsRemaining(t *testing.T) {
	store := memory.New()
	db := &fakeDB{failOn: `"height"`}
	coord := newLiveCoordinator(t, store, db)

	sets := []*sqlshift.ChangeSet{
		addColumnSet(t, "1", "person", "age"),
		addColumnSet(t, "2", "person", "height"),
		addColumnSet(t, "3", "person", "weight"),
	}

	report, err := coord.Run(context.Background(), sets)

	require.Error(t, err)
	var applyErr *sqlshift.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "2", applyErr.Set.ID)

	assert.Equal(t, 1, report.Count(StatusApplied))
	assert.Equal(t, 1, report.Count(StatusFailed))
	assert.Equal(t, 1, report.Count(StatusNotAttempted))
	require.NotNil(t, report.Failed())
	assert.Equal(t, "2", report.Failed().Set.ID)

	// The first set stays recorded so a retried run resumes correctly.
	_, found, ferr := store.Find(context.Background(), sets[0].Identity())
	require.NoError(t, ferr)
	assert.True(t, found)
	_, found, ferr = store.Find(context.Background(), sets[1].Identity())
	require.NoError(t, ferr)
	assert.False(t, found)
}

func TestRun_DriftIsAdvisory(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)
	sets := []*sqlshift.ChangeSet{addColumnSet(t, "1", "person", "age")}

	_, err := coord.Run(context.Background(), sets)
	require.NoError(t, err)

	// Simulate a post-application edit.
	edited := []*sqlshift.ChangeSet{addColumnSet(t, "1", "person", "years")}
	report, err := coord.Run(context.Background(), edited)

	require.NoError(t, err, "drift must not fail the run")
	require.Len(t, report.Drift, 1)
	assert.Equal(t, edited[0].Identity(), report.Drift[0].Set)
	assert.Equal(t, 1, report.Count(StatusSkipped))
}

func TestRun_RunOnChangeReappliesOnDrift(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)

	first := addColumnSet(t, "1", "person", "age")
	first.RunOnChange = true
	_, err := coord.Run(context.Background(), []*sqlshift.ChangeSet{first})
	require.NoError(t, err)

	edited := addColumnSet(t, "1", "person", "years")
	edited.RunOnChange = true
	report, err := coord.Run(context.Background(), []*sqlshift.ChangeSet{edited})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusApplied))
	require.Len(t, report.Drift, 1)

	// The stored checksum now reflects the edited content.
	entry, found, err := store.Find(context.Background(), edited.Identity())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, edited.Checksum().String(), entry.Checksum)
}

func TestRun_AlwaysRunReappliesEveryRun(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)

	cs := addColumnSet(t, "1", "person", "age")
	cs.AlwaysRun = true

	_, err := coord.Run(context.Background(), []*sqlshift.ChangeSet{cs})
	require.NoError(t, err)
	report, err := coord.Run(context.Background(), []*sqlshift.ChangeSet{cs})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusApplied))
	assert.Len(t, db.executed, 2)
}

func TestRun_ScriptModeSerializesWithoutExecuting(t *testing.T) {
	store := memory.New()
	var script strings.Builder
	coord, err := New(Config{
		History: store,
		Target:  dialect.Postgres{},
		Sink:    &script,
		Logger:  quietLogger(),
	})
	require.NoError(t, err)

	sets := []*sqlshift.ChangeSet{addColumnSet(t, "1", "person", "age")}
	report, err := coord.Run(context.Background(), sets)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusApplied))
	assert.Contains(t, script.String(), "-- changeset changelog.yaml::1::alice")
	assert.Contains(t, script.String(), `ALTER TABLE "person" ADD COLUMN "age" INTEGER;`)

	// Script mode never writes history.
	entries, err := store.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_ScriptModeMatchesLiveStatements(t *testing.T) {
	live := &fakeDB{}
	liveCoord := newLiveCoordinator(t, memory.New(), live)
	_, err := liveCoord.Run(context.Background(), []*sqlshift.ChangeSet{addColumnSet(t, "1", "person", "age")})
	require.NoError(t, err)

	var script strings.Builder
	scriptCoord, err := New(Config{
		History: memory.New(),
		Target:  dialect.Postgres{},
		Sink:    &script,
		Logger:  quietLogger(),
	})
	require.NoError(t, err)
	_, err = scriptCoord.Run(context.Background(), []*sqlshift.ChangeSet{addColumnSet(t, "1", "person", "age")})
	require.NoError(t, err)

	for _, stmt := range live.executed {
		assert.Contains(t, script.String(), stmt+";")
	}
}

func TestRollbackTo_RevertsInReverseOrderAndUpdatesHistory(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)

	sets := []*sqlshift.ChangeSet{
		addColumnSet(t, "1", "person", "age"),
		addColumnSet(t, "2", "person", "height"),
	}
	_, err := coord.Run(context.Background(), sets)
	require.NoError(t, err)
	db.executed = nil

	report, err := coord.RollbackTo(context.Background(), sets)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(StatusReverted))
	assert.Equal(t, []string{
		`ALTER TABLE "person" DROP COLUMN "height"`,
		`ALTER TABLE "person" DROP COLUMN "age"`,
	}, db.executed)

	entries, err := store.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRollbackTo_SkipsUnappliedSets(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)

	applied := addColumnSet(t, "1", "person", "age")
	_, err := coord.Run(context.Background(), []*sqlshift.ChangeSet{applied})
	require.NoError(t, err)
	db.executed = nil

	notApplied := addColumnSet(t, "2", "person", "height")
	report, err := coord.RollbackTo(context.Background(), []*sqlshift.ChangeSet{applied, notApplied})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(StatusReverted))
	assert.Equal(t, 1, report.Count(StatusSkipped))
	assert.Equal(t, []string{`ALTER TABLE "person" DROP COLUMN "age"`}, db.executed)
}

func TestRollbackTo_ImpossibleRefusesBeforeAnyUndo(t *testing.T) {
	store := memory.New()
	db := &fakeDB{}
	coord := newLiveCoordinator(t, store, db)

	sets := []*sqlshift.ChangeSet{
		addColumnSet(t, "1", "person", "age"),
		dropTableSet(t, "2", "legacy"),
	}
	_, err := coord.Run(context.Background(), sets)
	require.NoError(t, err)
	db.executed = nil

	report, err := coord.RollbackTo(context.Background(), sets)

	require.Error(t, err)
	assert.ErrorIs(t, err, sqlshift.ErrRollbackImpossible)
	assert.Equal(t, 1, report.Count(StatusFailed))
	assert.Empty(t, db.executed, "pre-flight must refuse before executing any undo")

	// History untouched.
	entries, herr := store.Entries(context.Background())
	require.NoError(t, herr)
	assert.Len(t, entries, 2)
}
