// Package ingest turns the two raw passenger tables into joined records.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"titanic/internal/parser/csv"
	"titanic/internal/parser/ints"
	"titanic/internal/schema"
)

// ErrMissingColumn is returned when a required column is absent from a table.
var ErrMissingColumn = errors.New("missing required column")

// FieldError reports a cell that could not be parsed as its column's type.
type FieldError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("line %d: column %s: value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Columns each source must carry.
var (
	InfoColumns = []string{
		schema.ColPassengerID, schema.ColName, schema.ColSex, schema.ColAge,
		schema.ColPclass, schema.ColCabin, schema.ColEmbarked,
	}
	TripColumns = []string{
		schema.ColPassengerID, schema.ColFare, schema.ColSibSp, schema.ColParch, schema.ColSurvived,
	}
)

// columns resolves each name to its position in t. Lookups use the same
// canonical form the parser applies to headers.
func columns(t *csv.Table, names []string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	var missing []string
	for _, n := range names {
		i := t.Index(csv.Canonical(n))
		if i < 0 {
			missing = append(missing, n)
			continue
		}
		idx[n] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// rowReader pulls typed cells out of one row and remembers the first failure.
type rowReader struct {
	row csv.Row
	idx map[string]int
	err error
}

func (r *rowReader) str(col string) *string {
	return r.row.Cells[r.idx[col]]
}

func (r *rowReader) id(col string) *int64 {
	s := r.str(col)
	if s == nil || r.err != nil {
		return nil
	}
	n, err := ints.ParseID(*s)
	if err != nil {
		r.err = &FieldError{Line: r.row.Line, Column: col, Value: *s, Err: err}
		return nil
	}
	return &n
}

func (r *rowReader) float(col string) *float64 {
	s := r.str(col)
	if s == nil || r.err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		r.err = &FieldError{Line: r.row.Line, Column: col, Value: *s, Err: err}
		return nil
	}
	return &f
}

// DecodeInfo binds the passenger info columns of t. Extra columns are ignored.
func DecodeInfo(t *csv.Table) ([]schema.PassengerInfo, error) {
	idx, err := columns(t, InfoColumns)
	if err != nil {
		return nil, fmt.Errorf("passenger info: %w", err)
	}
	out := make([]schema.PassengerInfo, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := rowReader{row: row, idx: idx}
		rec := schema.PassengerInfo{
			PassengerID: r.id(schema.ColPassengerID),
			Name:        r.str(schema.ColName),
			Sex:         r.str(schema.ColSex),
			Age:         r.float(schema.ColAge),
			Pclass:      r.float(schema.ColPclass),
			Cabin:       r.str(schema.ColCabin),
			Embarked:    r.str(schema.ColEmbarked),
			Line:        row.Line,
		}
		if r.err != nil {
			return nil, fmt.Errorf("passenger info: %w", r.err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeTrip binds the passenger trip columns of t. Extra columns are ignored.
func DecodeTrip(t *csv.Table) ([]schema.PassengerTrip, error) {
	idx, err := columns(t, TripColumns)
	if err != nil {
		return nil, fmt.Errorf("passenger trip: %w", err)
	}
	out := make([]schema.PassengerTrip, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := rowReader{row: row, idx: idx}
		rec := schema.PassengerTrip{
			PassengerID: r.id(schema.ColPassengerID),
			Fare:        r.float(schema.ColFare),
			SibSp:       r.float(schema.ColSibSp),
			Parch:       r.float(schema.ColParch),
			Survived:    r.float(schema.ColSurvived),
			Line:        row.Line,
		}
		if r.err != nil {
			return nil, fmt.Errorf("passenger trip: %w", r.err)
		}
		out = append(out, rec)
	}
	return out, nil
}
