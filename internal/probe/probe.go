// Package probe profiles a source table before it is fed to the pipeline:
// per-column null counts, numeric ranges and example values, plus the
// required columns the file lacks.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"titanic/internal/datasource"
	"titanic/internal/parser/csv"
)

// Options control the profile.
type Options struct {
	// Expected lists column names that must be present. Lookups use the
	// parser's canonical key.
	Expected []string
	// Examples caps the distinct example values kept per column. Zero means 3.
	Examples int
}

// ColumnProfile summarises one column.
type ColumnProfile struct {
	Header   string   `json:"header"`
	Key      string   `json:"key"`
	NonNull  int      `json:"non_null"`
	Null     int      `json:"null"`
	Distinct int      `json:"distinct"`
	Numeric  bool     `json:"numeric"`  // every non-null cell parses as a number
	Integral bool     `json:"integral"` // numeric and every value is whole
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

// Report is the profile of one source.
type Report struct {
	Source  string          `json:"source"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
	Missing []string        `json:"missing,omitempty"`
}

// Probe reads src with p and profiles it.
func Probe(ctx context.Context, src datasource.Source, p *csv.Parser, opt Options) (Report, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return Report{}, err
	}
	defer rc.Close()

	t, err := p.ReadTable(rc)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return Profile(src.Name(), t, opt), nil
}

// Profile summarises an already parsed table.
func Profile(name string, t *csv.Table, opt Options) Report {
	maxEx := opt.Examples
	if maxEx <= 0 {
		maxEx = 3
	}

	rep := Report{Source: name, Rows: len(t.Rows)}
	for i, key := range t.Keys {
		rep.Columns = append(rep.Columns, profileColumn(t, i, key, maxEx))
	}
	for _, want := range opt.Expected {
		if t.Index(csv.Canonical(want)) < 0 {
			rep.Missing = append(rep.Missing, want)
		}
	}
	return rep
}

func profileColumn(t *csv.Table, i int, key string, maxEx int) ColumnProfile {
	c := ColumnProfile{Header: t.Header[i], Key: key, Numeric: true, Integral: true}
	seen := map[string]struct{}{}
	for _, row := range t.Rows {
		cell := row.Cells[i]
		if cell == nil {
			c.Null++
			continue
		}
		c.NonNull++
		if _, ok := seen[*cell]; !ok {
			seen[*cell] = struct{}{}
			if len(c.Examples) < maxEx {
				c.Examples = append(c.Examples, *cell)
			}
		}
		if !c.Numeric {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(*cell), 64)
		if err != nil || math.IsNaN(f) {
			c.Numeric, c.Integral = false, false
			c.Min, c.Max = nil, nil
			continue
		}
		if f != math.Trunc(f) {
			c.Integral = false
		}
		if c.Min == nil || f < *c.Min {
			c.Min = &f
		}
		if c.Max == nil || f > *c.Max {
			c.Max = &f
		}
	}
	c.Distinct = len(seen)
	if c.NonNull == 0 {
		c.Numeric, c.Integral = false, false
	}
	return c
}

// WriteJSON renders rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// WriteText renders rep as a table, followed by any missing columns.
func WriteText(w io.Writer, rep Report) error {
	if _, err := fmt.Fprintf(w, "%s: %d rows\n", rep.Source, rep.Rows); err != nil {
		return err
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"column", "key", "non-null", "null", "distinct", "type", "min", "max", "examples"})
	for _, c := range rep.Columns {
		tw.AppendRow(table.Row{
			c.Header, c.Key, c.NonNull, c.Null, c.Distinct, kind(c),
			fmtPtr(c.Min), fmtPtr(c.Max), strings.Join(c.Examples, " | "),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return err
	}
	if len(rep.Missing) > 0 {
		_, err := fmt.Fprintf(w, "missing required columns: %s\n", strings.Join(rep.Missing, ", "))
		return err
	}
	return nil
}

func kind(c ColumnProfile) string {
	switch {
	case c.Integral:
		return "int"
	case c.Numeric:
		return "float"
	case c.NonNull == 0:
		return "empty"
	default:
		return "text"
	}
}

func fmtPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
