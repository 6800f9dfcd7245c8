package ddl

// ColumnDef describes one column of a table definition. Name is unquoted;
// quoting happens at render time.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string // raw SQL expression
}

// TableDef holds a possibly schema-qualified table name ("schema.table") and
// its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef

	// KeyOrder, when set, orders the PRIMARY KEY clause. Every name must be
	// a column flagged PrimaryKey.
	KeyOrder []string
}

// PrimaryKey returns the primary-key column names, in KeyOrder when set and
// declaration order otherwise.
func (t TableDef) PrimaryKey() []string {
	if len(t.KeyOrder) > 0 {
		return append([]string(nil), t.KeyOrder...)
	}
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}
