package mssql

import (
	"fmt"
	"strings"

	"titanic/internal/ddl"
	"titanic/internal/projection"
)

// Dialect renders SQL Server DDL.
type Dialect struct{}

// SQLType maps projection types onto SQL Server types. NVARCHAR(MAX) cannot
// be indexed, so text key columns are bounded.
func (Dialect) SQLType(t projection.Type, key bool) string {
	switch t {
	case projection.Integer:
		return "BIGINT"
	case projection.Real:
		return "FLOAT"
	default:
		if key {
			return "NVARCHAR(64)"
		}
		return "NVARCHAR(MAX)"
	}
}

// CreateTableSQL renders a CREATE TABLE guarded by OBJECT_ID, SQL Server's
// stand-in for IF NOT EXISTS.
func (Dialect) CreateTableSQL(td ddl.TableDef) (string, error) {
	body, err := ddl.BuildCreateTableSQL(td, msIdent, false)
	if err != nil {
		return "", err
	}
	lit := strings.ReplaceAll(msFQN(strings.TrimSpace(td.FQN)), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", lit, body), nil
}

// DeleteAllSQL renders a TRUNCATE of table.
func (Dialect) DeleteAllSQL(table string) string {
	return "TRUNCATE TABLE " + msFQN(table)
}
