package change

import (
	"fmt"
	"strings"

	"github.com/getpup/sqlshift"
)

// CreateTable creates a new table with the given columns.
type CreateTable struct {
	base
	Table   string               `yaml:"table"`
	Columns []sqlshift.ColumnDef `yaml:"columns"`
}

func (c *CreateTable) Kind() sqlshift.ChangeKind { return "create-table" }
func (c *CreateTable) Tag() string               { return "createTable" }

func (c *CreateTable) SetUp() error {
	if err := validIdentifier(c.Kind(), c.Table, "table"); err != nil {
		return err
	}
	if len(c.Columns) == 0 {
		return &sqlshift.SetupError{Kind: c.Kind(), Reason: "at least one column is required"}
	}
	for _, col := range c.Columns {
		if err := validColumn(c.Kind(), col); err != nil {
			return err
		}
	}
	return nil
}

func (c *CreateTable) AffectedObjects() []sqlshift.DatabaseObject {
	objs := []sqlshift.DatabaseObject{{Type: sqlshift.ObjectTable, Name: c.Table}}
	for _, col := range c.Columns {
		objs = append(objs, sqlshift.DatabaseObject{Type: sqlshift.ObjectColumn, Name: col.Name, Table: c.Table})
	}
	return objs
}

func (c *CreateTable) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	clauses := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		mapped, err := t.ColumnType(col.Type)
		if err != nil {
			return nil, unsupportedType(c.Kind(), t, err)
		}
		clauses = append(clauses, columnClause(t, col, mapped))
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", t.QuoteIdentifier(c.Table), strings.Join(clauses, ", "))
	return sqlshift.StatementSet{{SQL: stmt}}, nil
}

// Digest order: table, then each column's canonical fields in declared order.
func (c *CreateTable) Digest() sqlshift.ContentHash {
	fields := []string{c.Table}
	for _, col := range c.Columns {
		fields = append(fields, col.CanonicalFields()...)
	}
	return sqlshift.DigestFields(c.Kind(), fields...)
}

func (c *CreateTable) Confirmation() string {
	return fmt.Sprintf("Table %s created", c.Table)
}

func (c *CreateTable) Inverses() []sqlshift.Change {
	return []sqlshift.Change{&DropTable{Table: c.Table}}
}

// DropTable drops a table. It cannot be rolled back: the engine does not
// know the dropped table's definition or contents.
type DropTable struct {
	base
	Table string `yaml:"table"`
}

func (c *DropTable) Kind() sqlshift.ChangeKind { return "drop-table" }
func (c *DropTable) Tag() string               { return "dropTable" }

func (c *DropTable) SetUp() error {
	return validIdentifier(c.Kind(), c.Table, "table")
}

func (c *DropTable) AffectedObjects() []sqlshift.DatabaseObject {
	return []sqlshift.DatabaseObject{{Type: sqlshift.ObjectTable, Name: c.Table}}
}

func (c *DropTable) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	return sqlshift.StatementSet{{SQL: "DROP TABLE " + t.QuoteIdentifier(c.Table)}}, nil
}

func (c *DropTable) Digest() sqlshift.ContentHash {
	return sqlshift.DigestFields(c.Kind(), c.Table)
}

func (c *DropTable) Confirmation() string {
	return fmt.Sprintf("Table %s dropped", c.Table)
}

// RenameTable renames a table. Its own inverse, with the names swapped.
type RenameTable struct {
	base
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func (c *RenameTable) Kind() sqlshift.ChangeKind { return "rename-table" }
func (c *RenameTable) Tag() string               { return "renameTable" }

func (c *RenameTable) SetUp() error {
	if err := validIdentifier(c.Kind(), c.From, "from"); err != nil {
		return err
	}
	return validIdentifier(c.Kind(), c.To, "to")
}

func (c *RenameTable) AffectedObjects() []sqlshift.DatabaseObject {
	return []sqlshift.DatabaseObject{
		{Type: sqlshift.ObjectTable, Name: c.From},
		{Type: sqlshift.ObjectTable, Name: c.To},
	}
}

func (c *RenameTable) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", t.QuoteIdentifier(c.From), t.QuoteIdentifier(c.To))
	return sqlshift.StatementSet{{SQL: stmt}}, nil
}

// Digest order: from, to.
func (c *RenameTable) Digest() sqlshift.ContentHash {
	return sqlshift.DigestFields(c.Kind(), c.From, c.To)
}

func (c *RenameTable) Confirmation() string {
	return fmt.Sprintf("Table %s renamed to %s", c.From, c.To)
}

func (c *RenameTable) Inverses() []sqlshift.Change {
	return []sqlshift.Change{&RenameTable{From: c.To, To: c.From}}
}
