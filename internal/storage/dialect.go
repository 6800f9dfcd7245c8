package storage

import (
	"fmt"
	"sync"

	"titanic/internal/ddl"
	"titanic/internal/projection"
)

// Dialect renders the SQL a backend needs around its bulk copy.
type Dialect interface {
	// SQLType maps a projection column type to a column type. key is true
	// for primary-key columns, which some engines require to be bounded.
	SQLType(t projection.Type, key bool) string
	// CreateTableSQL renders an idempotent CREATE TABLE for td.
	CreateTableSQL(td ddl.TableDef) (string, error)
	// DeleteAllSQL renders a statement removing every row of table.
	DeleteAllSQL(table string) string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect adds or replaces the Dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}

// TableDefFor builds the table definition of def stored as table. The primary
// key is the projection's partition keys followed by its clustering keys.
func TableDefFor(table string, def projection.Def, d Dialect) ddl.TableDef {
	key := map[string]bool{}
	for _, k := range def.Key() {
		key[k] = true
	}
	td := ddl.TableDef{
		FQN:      table,
		Columns:  make([]ddl.ColumnDef, 0, len(def.Columns)),
		KeyOrder: def.Key(),
	}
	for _, c := range def.Columns {
		td.Columns = append(td.Columns, ddl.ColumnDef{
			Name:       c.Name,
			SQLType:    d.SQLType(c.Type, key[c.Name]),
			PrimaryKey: key[c.Name],
		})
	}
	return td
}
