package change

import (
	"fmt"
	"strings"

	"github.com/getpup/sqlshift"
)

// CreateIndex creates an index over one or more columns.
type CreateIndex struct {
	base
	Index   string   `yaml:"index"`
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

func (c *CreateIndex) Kind() sqlshift.ChangeKind { return "create-index" }
func (c *CreateIndex) Tag() string               { return "createIndex" }

func (c *CreateIndex) SetUp() error {
	if err := validIdentifier(c.Kind(), c.Index, "index"); err != nil {
		return err
	}
	if err := validIdentifier(c.Kind(), c.Table, "table"); err != nil {
		return err
	}
	if len(c.Columns) == 0 {
		return &sqlshift.SetupError{Kind: c.Kind(), Reason: "at least one column is required"}
	}
	for _, col := range c.Columns {
		if err := validIdentifier(c.Kind(), col, "column"); err != nil {
			return err
		}
	}
	return nil
}

func (c *CreateIndex) AffectedObjects() []sqlshift.DatabaseObject {
	objs := []sqlshift.DatabaseObject{
		{Type: sqlshift.ObjectIndex, Name: c.Index, Table: c.Table},
		{Type: sqlshift.ObjectTable, Name: c.Table},
	}
	for _, col := range c.Columns {
		objs = append(objs, sqlshift.DatabaseObject{Type: sqlshift.ObjectColumn, Name: col, Table: c.Table})
	}
	return objs
}

func (c *CreateIndex) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	quoted := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		quoted[i] = t.QuoteIdentifier(col)
	}
	unique := ""
	if c.Unique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, t.QuoteIdentifier(c.Index), t.QuoteIdentifier(c.Table), strings.Join(quoted, ", "))
	return sqlshift.StatementSet{{SQL: stmt}}, nil
}

// Digest order: index, table, unique, then columns in declared order.
func (c *CreateIndex) Digest() sqlshift.ContentHash {
	fields := []string{c.Index, c.Table, fmt.Sprintf("%t", c.Unique)}
	fields = append(fields, c.Columns...)
	return sqlshift.DigestFields(c.Kind(), fields...)
}

func (c *CreateIndex) Confirmation() string {
	return fmt.Sprintf("Index %s created on %s", c.Index, c.Table)
}

func (c *CreateIndex) Inverses() []sqlshift.Change {
	return []sqlshift.Change{&DropIndex{Index: c.Index, Table: c.Table}}
}

// DropIndex drops an index. It cannot be rolled back: the engine does not
// know the dropped index's column list.
type DropIndex struct {
	base
	Index string `yaml:"index"`
	Table string `yaml:"table"`
}

func (c *DropIndex) Kind() sqlshift.ChangeKind { return "drop-index" }
func (c *DropIndex) Tag() string               { return "dropIndex" }

func (c *DropIndex) SetUp() error {
	if err := validIdentifier(c.Kind(), c.Index, "index"); err != nil {
		return err
	}
	return validIdentifier(c.Kind(), c.Table, "table")
}

func (c *DropIndex) AffectedObjects() []sqlshift.DatabaseObject {
	return []sqlshift.DatabaseObject{
		{Type: sqlshift.ObjectIndex, Name: c.Index, Table: c.Table},
	}
}

func (c *DropIndex) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	stmt := "DROP INDEX " + t.QuoteIdentifier(c.Index)
	if t.IndexDropRequiresTable() {
		stmt += " ON " + t.QuoteIdentifier(c.Table)
	}
	return sqlshift.StatementSet{{SQL: stmt}}, nil
}

// Digest order: index, table.
func (c *DropIndex) Digest() sqlshift.ContentHash {
	return sqlshift.DigestFields(c.Kind(), c.Index, c.Table)
}

func (c *DropIndex) Confirmation() string {
	return fmt.Sprintf("Index %s dropped", c.Index)
}
