package dialect

import "strings"

var mysqlTypes = map[string]string{
	"int":      "INT",
	"integer":  "INT",
	"bigint":   "BIGINT",
	"smallint": "SMALLINT",
	"boolean":  "TINYINT(1)",
	"text":     "TEXT",
	"varchar":  "VARCHAR",
	"char":     "CHAR",
	"float":    "FLOAT",
	"double":   "DOUBLE",
	"decimal":  "DECIMAL",
	"date":     "DATE",
	"time":     "TIME",
	"datetime": "DATETIME",
	"blob":     "BLOB",
	"uuid":     "CHAR(36)",
}

// MySQL renders statements for MySQL and MariaDB.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) ColumnType(neutral string) (string, error) {
	return mapColumnType(mysqlTypes, neutral)
}

func (MySQL) AutoIncrementClause() string { return "AUTO_INCREMENT" }

func (MySQL) SupportsDropColumn() bool { return true }

func (MySQL) IndexDropRequiresTable() bool { return true }
