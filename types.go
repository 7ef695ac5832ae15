package sqlshift

import (
	"encoding/hex"
	"strconv"
)

// ChangeKind is the stable name of a change kind. It identifies the kind
// across engine versions and is part of every change's digest, so renaming
// a kind invalidates recorded checksums.
type ChangeKind string

// Statement is a single dialect-rendered SQL statement, without a trailing
// statement terminator.
type Statement struct {
	// SQL is the statement text as rendered for a specific DatabaseTarget.
	SQL string
}

// StatementSet is an ordered sequence of statements produced by a change.
// Order is execution order and is significant.
type StatementSet []Statement

// ObjectType classifies a database object affected by a change.
type ObjectType string

const (
	ObjectTable  ObjectType = "table"
	ObjectColumn ObjectType = "column"
	ObjectIndex  ObjectType = "index"
)

// DatabaseObject names a schema object a change touches. Table is the owning
// table for columns and indexes, and empty for tables themselves.
type DatabaseObject struct {
	Type  ObjectType
	Name  string
	Table string
}

// Identity is the identity tuple of a change set: the id chosen by the
// author, the author name, and the source location of the changelog the set
// was loaded from. Two sets with equal identities are the same logical unit.
type Identity struct {
	ID     string
	Author string
	Path   string
}

// String renders the identity in the changelog path::id::author form used in
// logs and error messages.
func (id Identity) String() string {
	return id.Path + "::" + id.ID + "::" + id.Author
}

// ContentHash is a deterministic content digest over the canonical structural
// representation of a change or change set. It is an identity, not a security
// primitive: equal configurations hash equally across process restarts.
type ContentHash [32]byte

// String returns the lowercase hex encoding of the hash.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// ColumnDef describes a column in a dialect-neutral way. Type uses the
// neutral type vocabulary mapped by each DatabaseTarget (int, bigint,
// boolean, text, varchar(n), ...).
type ColumnDef struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	NotNull       bool   `yaml:"notNull"`
	Default       string `yaml:"default"`
	PrimaryKey    bool   `yaml:"primaryKey"`
	AutoIncrement bool   `yaml:"autoIncrement"`
}

// CanonicalFields returns the column's attributes in the fixed order used
// for digest computation: name, type, notNull, default, primaryKey,
// autoIncrement.
func (c ColumnDef) CanonicalFields() []string {
	return []string{
		c.Name,
		c.Type,
		strconv.FormatBool(c.NotNull),
		c.Default,
		strconv.FormatBool(c.PrimaryKey),
		strconv.FormatBool(c.AutoIncrement),
	}
}

// DatabaseTarget is the dialect-rendering capability a change depends on but
// never owns. Implementations are stateless: a change may be rendered against
// any number of targets, at a different time and place than execution.
type DatabaseTarget interface {
	// Name identifies the database product ("postgres", "mysql", "sqlite").
	Name() string

	// QuoteIdentifier quotes a table, column or index name for the dialect.
	QuoteIdentifier(name string) string

	// ColumnType maps a neutral column type to the dialect's spelling.
	// Returns an error for types the dialect has no rendering for.
	ColumnType(neutral string) (string, error)

	// AutoIncrementClause is the column suffix requesting auto-increment,
	// or empty when the dialect expresses it through the type itself.
	AutoIncrementClause() string

	// SupportsDropColumn reports whether the dialect can drop a column
	// from an existing table.
	SupportsDropColumn() bool

	// IndexDropRequiresTable reports whether DROP INDEX must name the
	// owning table (MySQL) rather than the index alone.
	IndexDropRequiresTable() bool
}
