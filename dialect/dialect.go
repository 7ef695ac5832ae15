// Package dialect provides DatabaseTarget implementations for PostgreSQL,
// MySQL/MariaDB and SQLite. Targets are stateless renderers: they map the
// neutral column-type vocabulary to each product's spelling, quote
// identifiers, and report product capabilities. They never hold connections.
package dialect

import (
	"fmt"
	"strings"

	"github.com/getpup/sqlshift"
)

// ByName returns the target for a product name as used by driver selection
// ("postgres", "mysql", "sqlite").
func ByName(name string) (sqlshift.DatabaseTarget, error) {
	switch name {
	case "postgres":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	case "sqlite":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unknown database target %q", name)
	}
}

// mapColumnType resolves a neutral type against a dialect's type table.
// Parameterized types (varchar(255), decimal(10,2)) match on the base name
// and keep their argument list.
func mapColumnType(types map[string]string, neutral string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(neutral))
	if mapped, ok := types[key]; ok {
		return mapped, nil
	}
	if open := strings.Index(key, "("); open > 0 && strings.HasSuffix(key, ")") {
		base := key[:open]
		if mapped, ok := types[base]; ok {
			return mapped + key[open:], nil
		}
	}
	return "", fmt.Errorf("unknown column type %q", neutral)
}
