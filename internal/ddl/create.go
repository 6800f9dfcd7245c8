// Package ddl is a small, dialect-agnostic model for CREATE TABLE statements.
// Backends supply identifier quoting and wrap the rendered body in their own
// existence guard.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes a single identifier segment.
type Quoter func(string) string

// NoQuote emits identifiers verbatim.
func NoQuote(s string) string { return s }

// QuoteFQN quotes each dot-separated segment of fqn with q. Empty segments
// are dropped.
func QuoteFQN(fqn string, q Quoter) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, q(p))
	}
	return strings.Join(out, ".")
}

// ColumnList validates t and renders its column definitions followed by a
// PRIMARY KEY clause, one entry per element. Primary-key columns are always
// NOT NULL.
func ColumnList(t TableDef, q Quoter) ([]string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return nil, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	isKey := map[string]bool{}

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return nil, fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(q(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())
		isKey[name] = c.PrimaryKey
	}

	pks := make([]string, 0, len(t.Columns))
	for _, k := range t.PrimaryKey() {
		if !isKey[k] {
			return nil, fmt.Errorf("ddl: key column %s is not a primary-key column of %s", k, fqn)
		}
		pks = append(pks, q(k))
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return cols, nil
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col-def>,
//	  ...,
//	  PRIMARY KEY (<pk-cols>)
//	);
//
// quoting identifiers with q.
func BuildCreateTableSQL(t TableDef, q Quoter, ifNotExists bool) (string, error) {
	cols, err := ColumnList(t, q)
	if err != nil {
		return "", err
	}
	guard := ""
	if ifNotExists {
		guard = "IF NOT EXISTS "
	}
	return fmt.Sprintf(
		"CREATE TABLE %s%s (\n  %s\n);",
		guard,
		QuoteFQN(t.FQN, q),
		strings.Join(cols, ",\n  "),
	), nil
}
