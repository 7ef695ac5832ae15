package dialect

import "strings"

var postgresTypes = map[string]string{
	"int":      "INTEGER",
	"integer":  "INTEGER",
	"bigint":   "BIGINT",
	"smallint": "SMALLINT",
	"boolean":  "BOOLEAN",
	"text":     "TEXT",
	"varchar":  "VARCHAR",
	"char":     "CHAR",
	"float":    "REAL",
	"double":   "DOUBLE PRECISION",
	"decimal":  "DECIMAL",
	"date":     "DATE",
	"time":     "TIME",
	"datetime": "TIMESTAMP",
	"blob":     "BYTEA",
	"uuid":     "UUID",
}

// Postgres renders statements for PostgreSQL.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) ColumnType(neutral string) (string, error) {
	return mapColumnType(postgresTypes, neutral)
}

func (Postgres) AutoIncrementClause() string {
	return "GENERATED BY DEFAULT AS IDENTITY"
}

func (Postgres) SupportsDropColumn() bool { return true }

func (Postgres) IndexDropRequiresTable() bool { return false }
