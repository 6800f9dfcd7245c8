package mysql

import (
	"titanic/internal/ddl"
	"titanic/internal/projection"
)

// Dialect renders MySQL DDL with backtick-quoted identifiers.
type Dialect struct{}

// SQLType maps projection types onto MySQL types. TEXT columns cannot be part
// of a primary key without a prefix length, so text keys use VARCHAR.
func (Dialect) SQLType(t projection.Type, key bool) string {
	switch t {
	case projection.Integer:
		return "BIGINT"
	case projection.Real:
		return "DOUBLE"
	default:
		if key {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for td.
func (Dialect) CreateTableSQL(td ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(td, myIdent, true)
}

// DeleteAllSQL renders a TRUNCATE of table.
func (Dialect) DeleteAllSQL(table string) string {
	return "TRUNCATE TABLE " + myFQN(table)
}
