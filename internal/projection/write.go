package projection

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"titanic/internal/schema"
)

// Written describes one output file.
type Written struct {
	Name   string
	Path   string
	Rows   int
	Digest string // xxh3-64 of the file bytes, hex
}

// FormatCell renders a cell the way the CSV files carry it. Floats always
// keep a fractional part ("28.0") so that ages read back as reals.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return "inf"
		}
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Encode renders t as CSV with a header row.
func Encode(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Def.ColumnNames()); err != nil {
		return nil, err
	}
	rec := make([]string, len(t.Def.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			rec[i] = FormatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes t to dir/<name>.csv, replacing any existing file.
func WriteCSV(dir string, t Table) (Written, error) {
	b, err := Encode(t)
	if err != nil {
		return Written{}, fmt.Errorf("encode %s: %w", t.Def.Name, err)
	}
	path := filepath.Join(dir, t.Def.FileName())
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return Written{}, fmt.Errorf("write %s: %w", path, err)
	}
	w := Written{
		Name:   t.Def.Name,
		Path:   path,
		Rows:   len(t.Rows),
		Digest: fmt.Sprintf("%016x", xxh3.Hash(b)),
	}
	log.Printf("projection: wrote %s rows=%d xxh3=%s", path, w.Rows, w.Digest)
	return w, nil
}

// WriteAll builds and writes every catalog projection into dir. onWritten, when
// set, sees each file as soon as it is on disk. The returned tables are reused
// by the optional sinks.
func WriteAll(dir string, ps []schema.Passenger, onWritten func(Written)) ([]Table, []Written, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	tables := make([]Table, 0, len(Catalog))
	written := make([]Written, 0, len(Catalog))
	for _, def := range Catalog {
		t, err := Build(def, ps)
		if err != nil {
			return nil, nil, err
		}
		w, err := WriteCSV(dir, t)
		if err != nil {
			return nil, nil, err
		}
		if onWritten != nil {
			onWritten(w)
		}
		tables = append(tables, t)
		written = append(written, w)
	}
	return tables, written, nil
}
