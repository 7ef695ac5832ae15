package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "sqlite"} {
		target, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, target.Name())
	}

	_, err := ByName("oracle")
	assert.Error(t, err)
}

func TestPostgres_ColumnTypes(t *testing.T) {
	pg := Postgres{}

	cases := map[string]string{
		"int":           "INTEGER",
		"boolean":       "BOOLEAN",
		"varchar(255)":  "VARCHAR(255)",
		"decimal(10,2)": "DECIMAL(10,2)",
		"datetime":      "TIMESTAMP",
		"blob":          "BYTEA",
		"uuid":          "UUID",
	}
	for neutral, want := range cases {
		got, err := pg.ColumnType(neutral)
		require.NoError(t, err, neutral)
		assert.Equal(t, want, got)
	}

	_, err := pg.ColumnType("polygon")
	assert.Error(t, err)
}

func TestMySQL_ColumnTypes(t *testing.T) {
	my := MySQL{}

	got, err := my.ColumnType("boolean")
	require.NoError(t, err)
	assert.Equal(t, "TINYINT(1)", got)

	got, err = my.ColumnType("uuid")
	require.NoError(t, err)
	assert.Equal(t, "CHAR(36)", got)

	got, err = my.ColumnType("varchar(100)")
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR(100)", got)
}

func TestSQLite_ColumnTypesCollapseToAffinities(t *testing.T) {
	lite := SQLite{}

	got, err := lite.ColumnType("varchar(255)")
	require.NoError(t, err)
	assert.Equal(t, "TEXT", got)

	got, err = lite.ColumnType("bigint")
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", got)

	got, err = lite.ColumnType("datetime")
	require.NoError(t, err)
	assert.Equal(t, "TEXT", got)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"person"`, Postgres{}.QuoteIdentifier("person"))
	assert.Equal(t, "`person`", MySQL{}.QuoteIdentifier("person"))
	assert.Equal(t, `"say ""hi"""`, SQLite{}.QuoteIdentifier(`say "hi"`))
	assert.Equal(t, "`a``b`", MySQL{}.QuoteIdentifier("a`b"))
}

func TestCapabilities(t *testing.T) {
	assert.True(t, Postgres{}.SupportsDropColumn())
	assert.True(t, MySQL{}.SupportsDropColumn())
	assert.False(t, SQLite{}.SupportsDropColumn())

	assert.True(t, MySQL{}.IndexDropRequiresTable())
	assert.False(t, Postgres{}.IndexDropRequiresTable())
}
