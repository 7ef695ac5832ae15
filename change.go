package sqlshift

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
)

// Change is a single declarative, database-agnostic migration operation.
//
// A change is constructed by the parsing collaborator, configured by setting
// its declared attributes, validated once via SetUp, and then used repeatedly
// for statement generation, possibly against several targets. Generation is a
// pure function of (configuration, target): it performs no I/O and must not
// reference live data, because generated scripts may run at a different time
// against a different database state.
type Change interface {
	// Kind returns the stable change-kind name.
	Kind() ChangeKind

	// Tag returns the serialization tag the change is registered under.
	Tag() string

	// SetUp validates the configuration. Called exactly once after all
	// attributes are set and before any generation. A non-nil error is a
	// *SetupError and permanently disqualifies the change.
	SetUp() error

	// AffectedObjects returns the database objects this change touches,
	// derived purely from its configuration.
	AffectedObjects() []DatabaseObject

	// Forward renders the statements that apply the change on the target.
	Forward(target DatabaseTarget) (StatementSet, error)

	// Digest returns the deterministic content hash over the change's
	// canonical structural representation, independent of any target.
	Digest() ContentHash

	// Confirmation is the human-readable message reported after the
	// change has been applied.
	Confirmation() string
}

// Inverser is implemented by changes whose rollback is the reverse-order
// application of declared inverse changes. This is the preferred rollback
// strategy: it reuses forward generation and dialect coverage automatically.
type Inverser interface {
	// Inverses returns fully configured inverse changes, in the order
	// that undoes this change when their forward statements are applied
	// in reverse.
	Inverses() []Change
}

// Rollbacker is implemented by changes with bespoke rollback generation, for
// operations with no clean inverse. Consulted only when no inverses are
// declared.
type Rollbacker interface {
	Rollback(target DatabaseTarget) (StatementSet, error)
}

// changeSetBinder is implemented by changes that track their owning change
// set. ChangeSet.Add binds through it when present.
type changeSetBinder interface {
	BindChangeSet(cs *ChangeSet)
}

// RollbackStatements renders the statements that undo c on the target.
//
// Declared inverses take precedence: the result is the concatenation, in
// reverse declaration order, of each inverse's forward statements. A change
// with no inverses falls back to its Rollback override. A change with
// neither fails with ErrRollbackImpossible.
func RollbackStatements(c Change, target DatabaseTarget) (StatementSet, error) {
	if inv, ok := c.(Inverser); ok {
		if inverses := inv.Inverses(); len(inverses) > 0 {
			var out StatementSet
			for i := len(inverses) - 1; i >= 0; i-- {
				if err := inverses[i].SetUp(); err != nil {
					return nil, err
				}
				stmts, err := inverses[i].Forward(target)
				if err != nil {
					return nil, err
				}
				out = append(out, stmts...)
			}
			return out, nil
		}
	}
	if rb, ok := c.(Rollbacker); ok {
		return rb.Rollback(target)
	}
	return nil, fmt.Errorf("%s: %w", c.Kind(), ErrRollbackImpossible)
}

// CanRollback reports whether RollbackStatements would succeed for some
// target. Used for pre-flight planning before touching any database.
func CanRollback(c Change) bool {
	if inv, ok := c.(Inverser); ok && len(inv.Inverses()) > 0 {
		return true
	}
	if cr, ok := c.(interface{ CanRollback() bool }); ok {
		return cr.CanRollback()
	}
	_, ok := c.(Rollbacker)
	return ok
}

// Execer is the minimal statement-execution surface the engine needs from a
// live database. Implemented by *sql.DB, *sql.Tx and *sql.Conn; the engine
// never opens transactions itself, so a caller wanting per-set atomicity
// passes an *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var _ Execer = (*sql.DB)(nil)
var _ Execer = (*sql.Tx)(nil)
var _ Execer = (*sql.Conn)(nil)

// ExecuteForward generates c's forward statements for the target and runs
// them in order against db. Generation failures surface unchanged
// (*UnsupportedError); execution failures surface as *ExecError.
func ExecuteForward(ctx context.Context, c Change, db Execer, target DatabaseTarget) error {
	stmts, err := c.Forward(target)
	if err != nil {
		return err
	}
	return execAll(ctx, c, db, stmts)
}

// ExecuteRollback generates c's rollback statements for the target and runs
// them in order against db.
func ExecuteRollback(ctx context.Context, c Change, db Execer, target DatabaseTarget) error {
	stmts, err := RollbackStatements(c, target)
	if err != nil {
		return err
	}
	return execAll(ctx, c, db, stmts)
}

func execAll(ctx context.Context, c Change, db Execer, stmts StatementSet) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt.SQL); err != nil {
			return &ExecError{Kind: c.Kind(), Statement: stmt.SQL, Err: err}
		}
	}
	return nil
}

// WriteForward appends c's forward statements for the target to w, one per
// line, each terminated with a semicolon. Statement order is preserved
// exactly as generated.
func WriteForward(w io.Writer, c Change, target DatabaseTarget) error {
	stmts, err := c.Forward(target)
	if err != nil {
		return err
	}
	return writeAll(w, stmts)
}

// WriteRollback appends c's rollback statements for the target to w.
func WriteRollback(w io.Writer, c Change, target DatabaseTarget) error {
	stmts, err := RollbackStatements(c, target)
	if err != nil {
		return err
	}
	return writeAll(w, stmts)
}

func writeAll(w io.Writer, stmts StatementSet) error {
	for _, stmt := range stmts {
		if _, err := io.WriteString(w, stmt.SQL+";\n"); err != nil {
			return err
		}
	}
	return nil
}

// DigestFields computes the content hash for a change: SHA-256 over the kind
// name followed by the given attribute values, NUL-separated so adjacent
// fields cannot collide by concatenation. Each kind passes its attributes in
// a fixed, documented order; any attribute edit changes the digest.
func DigestFields(kind ChangeKind, fields ...string) ContentHash {
	h := sha256.New()
	io.WriteString(h, string(kind))
	for _, f := range fields {
		h.Write([]byte{0})
		io.WriteString(h, f)
	}
	var sum ContentHash
	copy(sum[:], h.Sum(nil))
	return sum
}
