// Package csv reads header-delimited tables into memory.
//
// Empty cells and the NA tokens in DefaultNAValues read as null.
// The reader is strict: a syntax error or a row whose width differs from the
// header aborts the read with a *RowError carrying the source line. Header
// cells are canonicalised so that "PassengerId", " passengerid" and a
// BOM-prefixed "PassengerId" all bind to the same key.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Options configures the reader. The zero value reads comma-separated input
// without trimming.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing white space from each cell.
	TrimSpace bool

	// HeaderMap maps raw header cells to canonical keys. Lookups use the raw
	// cell (BOM stripped, trimmed); unmapped headers fall back to Canonical.
	HeaderMap map[string]string

	// NAValues are extra cell values read as null, on top of DefaultNAValues.
	NAValues []string

	// NoDefaultNA drops DefaultNAValues; only empty cells and NAValues are
	// then null.
	NoDefaultNA bool
}

// DefaultNAValues are the cell values read as null besides the empty cell.
// Matching is exact and case-sensitive, after TrimSpace when enabled.
var DefaultNAValues = []string{
	"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Parser reads tables according to Options. It is safe to reuse across
// inputs but not for concurrent use.
type Parser struct {
	opt Options
	na  map[string]struct{}
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	na := make(map[string]struct{}, len(DefaultNAValues)+len(opt.NAValues))
	if !opt.NoDefaultNA {
		for _, v := range DefaultNAValues {
			na[v] = struct{}{}
		}
	}
	for _, v := range opt.NAValues {
		na[v] = struct{}{}
	}
	return &Parser{opt: opt, na: na}
}

// Table is a fully materialised CSV table. Cells are nil for empty input.
type Table struct {
	// Header holds the raw header cells with any BOM removed.
	Header []string
	// Keys holds the canonical key for each header column.
	Keys []string
	// Rows holds one slice per data row, aligned with Keys.
	Rows []Row
}

// Row is one data row together with its 1-based line number in the source.
type Row struct {
	Line  int
	Cells []*string
}

// Index returns the column position for canonical key k, or -1.
func (t *Table) Index(k string) int {
	for i, key := range t.Keys {
		if key == k {
			return i
		}
	}
	return -1
}

// RowError reports a malformed row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("csv: line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ErrFieldCount is wrapped by RowError when a row is wider or narrower than
// the header.
var ErrFieldCount = errors.New("wrong number of fields")

// ReadTable consumes r entirely and returns the parsed table.
func (p *Parser) ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced below so the error carries our own sentinel.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	h = StripHeaderBOM(h)

	t := &Table{
		Header: make([]string, len(h)),
		Keys:   normalizeHeaders(h, p.opt),
	}
	copy(t.Header, h)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			return nil, &RowError{Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(t.Keys) {
			return nil, &RowError{
				Line: line,
				Err:  fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, len(t.Keys), len(row)),
			}
		}

		cells := make([]*string, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			cells[i] = p.cell(val)
		}
		t.Rows = append(t.Rows, Row{Line: line, Cells: cells})
	}

	return t, nil
}

// cell converts an empty or NA cell to nil.
func (p *Parser) cell(s string) *string {
	if s == "" {
		return nil
	}
	if _, ok := p.na[s]; ok {
		return nil
	}
	return &s
}

// normalizeHeaders produces canonical header keys using HeaderMap when it
// has an entry, otherwise Canonical.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if m, ok := opt.HeaderMap[c]; ok && m != "" {
			res[i] = m
			continue
		}
		res[i] = Canonical(c)
	}
	return res
}

// Canonical folds a header cell to its lookup key: diacritics removed,
// lowercased, inner spaces replaced by underscores.
func Canonical(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ReplaceAll(strings.ToLower(folded), " ", "_")
}
