// Package ddlgen renders the CREATE TABLE statements for every projection
// table, for operators who provision the schema themselves instead of
// enabling auto_create_table.
package ddlgen

import (
	"fmt"

	"titanic/internal/projection"
	"titanic/internal/storage"
)

// Statement is the DDL of one projection table.
type Statement struct {
	Table string
	SQL   string
}

// Generate renders one statement per catalog entry using the dialect
// registered for kind. Backends must be imported for their dialects to be
// available.
func Generate(kind, prefix string) ([]Statement, error) {
	d, err := storage.DialectFor(kind)
	if err != nil {
		return nil, err
	}
	out := make([]Statement, 0, len(projection.Catalog))
	for _, def := range projection.Catalog {
		name := storage.TableName(prefix, def)
		sql, err := d.CreateTableSQL(storage.TableDefFor(name, def, d))
		if err != nil {
			return nil, fmt.Errorf("ddlgen: %s: %w", name, err)
		}
		out = append(out, Statement{Table: name, SQL: sql})
	}
	return out, nil
}
