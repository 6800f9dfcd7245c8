package sqlite

import (
	"strings"

	"titanic/internal/ddl"
	"titanic/internal/projection"
)

// Dialect renders SQLite DDL.
type Dialect struct{}

// SQLType maps projection types onto SQLite affinities.
func (Dialect) SQLType(t projection.Type, _ bool) string {
	switch t {
	case projection.Integer:
		return "INTEGER"
	case projection.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with double-quoted
// identifiers.
func (Dialect) CreateTableSQL(td ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(td, quoteIdent, true)
}

// DeleteAllSQL renders an unconditional DELETE; SQLite has no TRUNCATE.
func (Dialect) DeleteAllSQL(table string) string {
	return "DELETE FROM " + quoteFQN(table)
}

// quoteIdent double-quotes one identifier, escaping embedded quotes.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(name string) string { return ddl.QuoteFQN(name, quoteIdent) }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}
