package storage

import (
	"context"
	"fmt"
	"log"

	"titanic/internal/metrics"
	"titanic/internal/projection"
)

// SinkOptions controls how projections are loaded.
type SinkOptions struct {
	Job         string
	TablePrefix string
	AutoCreate  bool
	Replace     bool
	BatchSize   int
}

// Loaded reports one table written by Sink.
type Loaded struct {
	Table   string
	Rows    int64
	Batches int64
}

// TableName is the table a projection is stored in.
func TableName(prefix string, def projection.Def) string { return prefix + def.Name }

// Sink loads every table into repo, in order, using the dialect registered for
// kind. Tables are optionally created and emptied first. Rows are upserted on
// the projection key, so a repeated key keeps its last row.
func Sink(ctx context.Context, kind string, repo Repository, tables []projection.Table, opt SinkOptions) ([]Loaded, error) {
	d, err := DialectFor(kind)
	if err != nil {
		return nil, err
	}
	if opt.BatchSize <= 0 {
		return nil, fmt.Errorf("storage: batch size must be > 0")
	}

	out := make([]Loaded, 0, len(tables))
	for _, t := range tables {
		name := TableName(opt.TablePrefix, t.Def)

		if opt.AutoCreate {
			stmt, err := d.CreateTableSQL(TableDefFor(name, t.Def, d))
			if err != nil {
				return out, fmt.Errorf("storage: ddl %s: %w", name, err)
			}
			if err := repo.Exec(ctx, stmt); err != nil {
				return out, fmt.Errorf("storage: create %s: %w", name, err)
			}
		}
		if opt.Replace {
			if err := repo.Exec(ctx, d.DeleteAllSQL(name)); err != nil {
				return out, fmt.Errorf("storage: clear %s: %w", name, err)
			}
		}

		key := t.Def.Key()
		copyFn := func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
			return repo.CopyFrom(ctx, name, cols, key, rows)
		}
		n, batches, err := LoadBatches(ctx, t.Def.ColumnNames(), t.Rows, opt.BatchSize, copyFn)
		metrics.RecordBatches(opt.Job, batches)
		metrics.RecordRows(opt.Job, metrics.KindLoaded, n)
		if err != nil {
			return out, fmt.Errorf("storage: load %s: %w", name, err)
		}
		log.Printf("storage: kind=%s table=%s rows=%d batches=%d", kind, name, n, batches)
		out = append(out, Loaded{Table: name, Rows: n, Batches: batches})
	}
	return out, nil
}
