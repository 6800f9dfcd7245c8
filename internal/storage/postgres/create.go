package postgres

import (
	"strings"

	"titanic/internal/ddl"
	"titanic/internal/projection"
)

// Dialect renders Postgres DDL with double-quoted identifiers.
type Dialect struct{}

// SQLType maps projection types onto Postgres column types.
func (Dialect) SQLType(t projection.Type, _ bool) string {
	switch t {
	case projection.Integer:
		return "BIGINT"
	case projection.Real:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for td.
func (Dialect) CreateTableSQL(td ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(td, pgIdent, true)
}

// DeleteAllSQL renders a TRUNCATE of table.
func (Dialect) DeleteAllSQL(table string) string {
	return "TRUNCATE TABLE " + pgFQN(table)
}

// pgIdent safely quotes a single identifier segment for Postgres, e.g.:
//
//	pgIdent(`Age`)          => `"Age"`
//	pgIdent(`weird"name`)   => `"weird""name"`
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.survivors" to
// "public"."survivors".
func pgFQN(name string) string { return ddl.QuoteFQN(name, pgIdent) }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
