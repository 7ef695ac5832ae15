package change

import (
	"fmt"

	"github.com/getpup/sqlshift"
)

// RawSQL executes author-supplied SQL verbatim on every target. The escape
// hatch for operations no declarative kind covers. Rollback is bespoke: it
// runs the Down statement when one is given and is impossible otherwise.
type RawSQL struct {
	base
	Up   string `yaml:"up"`
	Down string `yaml:"down"`
}

func (c *RawSQL) Kind() sqlshift.ChangeKind { return "raw-sql" }
func (c *RawSQL) Tag() string               { return "sql" }

func (c *RawSQL) SetUp() error {
	if c.Up == "" {
		return &sqlshift.SetupError{Kind: c.Kind(), Reason: "up is required"}
	}
	return nil
}

// AffectedObjects is empty: the engine does not parse raw SQL.
func (c *RawSQL) AffectedObjects() []sqlshift.DatabaseObject { return nil }

func (c *RawSQL) Forward(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	return sqlshift.StatementSet{{SQL: c.Up}}, nil
}

// Rollback runs the Down statement verbatim.
func (c *RawSQL) Rollback(t sqlshift.DatabaseTarget) (sqlshift.StatementSet, error) {
	if c.Down == "" {
		return nil, fmt.Errorf("%s: %w", c.Kind(), sqlshift.ErrRollbackImpossible)
	}
	return sqlshift.StatementSet{{SQL: c.Down}}, nil
}

// CanRollback reports whether a Down statement was supplied.
func (c *RawSQL) CanRollback() bool { return c.Down != "" }

// Digest order: up, down.
func (c *RawSQL) Digest() sqlshift.ContentHash {
	return sqlshift.DigestFields(c.Kind(), c.Up, c.Down)
}

func (c *RawSQL) Confirmation() string {
	return "Custom SQL executed"
}
