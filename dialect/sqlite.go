package dialect

import "strings"

// SQLite stores everything under four affinities, so the neutral vocabulary
// collapses accordingly.
var sqliteTypes = map[string]string{
	"int":      "INTEGER",
	"integer":  "INTEGER",
	"bigint":   "INTEGER",
	"smallint": "INTEGER",
	"boolean":  "INTEGER",
	"text":     "TEXT",
	"varchar":  "TEXT",
	"char":     "TEXT",
	"float":    "REAL",
	"double":   "REAL",
	"decimal":  "REAL",
	"date":     "TEXT",
	"time":     "TEXT",
	"datetime": "TEXT",
	"blob":     "BLOB",
	"uuid":     "TEXT",
}

// SQLite renders statements for SQLite.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType maps to affinities, dropping any size arguments since SQLite
// ignores them anyway.
func (SQLite) ColumnType(neutral string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(neutral))
	if open := strings.Index(key, "("); open > 0 {
		key = key[:open]
	}
	return mapColumnType(sqliteTypes, key)
}

func (SQLite) AutoIncrementClause() string { return "AUTOINCREMENT" }

// SupportsDropColumn is false: ALTER TABLE DROP COLUMN requires a
// table-rebuild workaround that cannot be expressed as a single declarative
// statement.
func (SQLite) SupportsDropColumn() bool { return false }

func (SQLite) IndexDropRequiresTable() bool { return false }
