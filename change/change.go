// Package change implements the concrete change kinds and the tag registry
// that maps changelog tags to constructors. Every kind implements
// sqlshift.Change; kinds with a clean inverse also implement
// sqlshift.Inverser, and the raw SQL kind implements sqlshift.Rollbacker.
package change

import (
	"fmt"
	"regexp"

	"github.com/getpup/sqlshift"
)

// base carries the non-owning back-reference to the owning change set.
// Embedded by every kind.
type base struct {
	cs *sqlshift.ChangeSet
}

// BindChangeSet records the owning change set. Called by ChangeSet.Add.
func (b *base) BindChangeSet(cs *sqlshift.ChangeSet) { b.cs = cs }

// OwningChangeSet returns the change set this change belongs to, or nil
// before the change has been added to one.
func (b *base) OwningChangeSet() *sqlshift.ChangeSet { return b.cs }

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validIdentifier ensures a table, column or index name contains only
// characters safe to interpolate into DDL.
func validIdentifier(kind sqlshift.ChangeKind, name, field string) error {
	if name == "" {
		return &sqlshift.SetupError{Kind: kind, Reason: field + " is required"}
	}
	if !identifierRegex.MatchString(name) {
		return &sqlshift.SetupError{
			Kind:   kind,
			Reason: fmt.Sprintf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", field, name),
		}
	}
	return nil
}

// validColumn checks a full column definition.
func validColumn(kind sqlshift.ChangeKind, col sqlshift.ColumnDef) error {
	if err := validIdentifier(kind, col.Name, "column name"); err != nil {
		return err
	}
	if col.Type == "" {
		return &sqlshift.SetupError{Kind: kind, Reason: "column " + col.Name + " has no type"}
	}
	if col.AutoIncrement && !col.PrimaryKey {
		return &sqlshift.SetupError{Kind: kind, Reason: "column " + col.Name + " is autoIncrement but not primaryKey"}
	}
	return nil
}

// columnClause renders one column definition for a target, given the
// already-mapped dialect type.
func columnClause(t sqlshift.DatabaseTarget, col sqlshift.ColumnDef, mappedType string) string {
	clause := t.QuoteIdentifier(col.Name) + " " + mappedType
	if col.PrimaryKey {
		clause += " PRIMARY KEY"
	}
	if col.AutoIncrement {
		if ai := t.AutoIncrementClause(); ai != "" {
			clause += " " + ai
		}
	}
	if col.NotNull && !col.PrimaryKey {
		clause += " NOT NULL"
	}
	if col.Default != "" {
		clause += " DEFAULT " + col.Default
	}
	return clause
}

// unsupportedType wraps a ColumnType failure as the target-dependent
// unsupported condition.
func unsupportedType(kind sqlshift.ChangeKind, t sqlshift.DatabaseTarget, err error) error {
	return &sqlshift.UnsupportedError{Kind: kind, Target: t.Name(), Reason: err.Error()}
}
