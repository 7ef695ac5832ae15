package change

import (
	"fmt"

	"github.com/getpup/sqlshift"
)

// AddColumn adds a column to an existing table.
type AddColumn struct {
	base
	Table  string             `yaml:"table"`
	Column sqlshift.ColumnDef `yaml:"column"`
}

func (c *AddColumn) Kind() sqlshift.ChangeKind { return "add-column" }
func (c *AddColumn) Tag() string               { return "addColumn" }

func (c *AddColumn) SetUp() error {
	if err := validIdentifier(c.Kind(), c.Table, "table"); err != nil {
		return err
	}
	if err := validColumn(c.Kind(), c.Column); err != nil {
		return err
	}
	if c.Column.PrimaryKey {
		return &sqlshift.SetupError{Kind: c.Kind(), Reason: "cannot add a primary key column to an existing table"}
	}
	return nil
}

func (c *AddColumn) AffectedObjects() []sqlshift.DatabaseObject {
	return []sqlshift.DatabaseObject{
		{Type: sqlshift.ObjectTable, Name: c.Table},
		{Type: sqlshift.ObjectColumn, Name: c.Column.Name, Table: c.Table},
	}
}

func (c *AddColumn) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	mapped, err := t.ColumnType(c.Column.Type)
	if err != nil {
		return nil, unsupportedType(c.Kind(), t, err)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.QuoteIdentifier(c.Table), columnClause(t, c.Column, mapped))
	return sqlshift.StatementSet{{SQL: stmt}}, nil
}

// Digest order: table, then the column's canonical fields.
func (c *AddColumn) Digest() sqlshift.ContentHash {
	return sqlshift.DigestFields(c.Kind(), append([]string{c.Table}, c.Column.CanonicalFields()...)...)
}

func (c *AddColumn) Confirmation() string {
	return fmt.Sprintf("Column %s(%s) added to %s", c.Column.Name, c.Column.Type, c.Table)
}

func (c *AddColumn) Inverses() []sqlshift.Change {
	return []sqlshift.Change{&DropColumn{Table: c.Table, Column: c.Column.Name}}
}

// DropColumn drops a column from a table. It cannot be rolled back: the
// engine does not know the dropped column's definition or data.
type DropColumn struct {
	base
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

func (c *DropColumn) Kind() sqlshift.ChangeKind { return "drop-column" }
func (c *DropColumn) Tag() string               { return "dropColumn" }

func (c *DropColumn) SetUp() error {
	if err := validIdentifier(c.Kind(), c.Table, "table"); err != nil {
		return err
	}
	return validIdentifier(c.Kind(), c.Column, "column")
}

func (c *DropColumn) AffectedObjects() []sqlshift.DatabaseObject {
	return []sqlshift.DatabaseObject{
		{Type: sqlshift.ObjectTable, Name: c.Table},
		{Type: sqlshift.ObjectColumn, Name: c.Column, Table: c.Table},
	}
}

func (c *DropColumn) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	if !t.SupportsDropColumn() {
		return nil, &sqlshift.UnsupportedError{Kind: c.Kind(), Target: t.Name(), Reason: "cannot drop columns"}
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", t.QuoteIdentifier(c.Table), t.QuoteIdentifier(c.Column))
	return sqlshift.StatementSet{{SQL: stmt}}, nil
}

// Digest order: table, column.
func (c *DropColumn) Digest() sqlshift.ContentHash {
	return sqlshift.DigestFields(c.Kind(), c.Table, c.Column)
}

func (c *DropColumn) Confirmation() string {
	return fmt.Sprintf("Column %s dropped from %s", c.Column, c.Table)
}
