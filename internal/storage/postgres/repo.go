// Package postgres implements a Postgres repository using pgx v5. Batches are
// streamed with the COPY protocol; keyed batches land in a temporary table
// and are merged into the target with INSERT ... ON CONFLICT.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{pool: pool}, func() { pool.Close() }, nil
}

// Transaction-scoped staging table used by keyed loads, and its ordinal
// column.
const (
	stageTable = "titanic_stage"
	ordColumn  = "titanic_ord"
)

// CopyFrom streams rows into table with COPY. With a key, rows are copied into
// a temporary table and merged with INSERT ... ON CONFLICT, keeping the last
// staged row per key.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns, key []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(key) == 0 {
		n, err := r.pool.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
		if err != nil {
			return n, describe(fmt.Sprintf("copy into %s", table), err)
		}
		return n, nil
	}

	staged := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("copy into %s: row %d has %d values for %d columns", table, i, len(row), len(columns))
		}
		staged[i] = append(append(make([]any, 0, len(row)+1), row...), int64(i))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, describe("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after Commit

	if _, err := tx.Exec(ctx, stageSQL(table, columns)); err != nil {
		return 0, describe(fmt.Sprintf("stage %s", table), err)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{stageTable}, append(append([]string(nil), columns...), ordColumn), pgx.CopyFromRows(staged))
	if err != nil {
		return 0, describe(fmt.Sprintf("copy into stage of %s", table), err)
	}
	if _, err := tx.Exec(ctx, mergeSQL(table, columns, key)); err != nil {
		return 0, describe(fmt.Sprintf("merge into %s", table), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, describe("commit", err)
	}
	return n, nil
}

// stageSQL creates an empty temporary copy of the loaded columns plus the
// ordinal, dropped at commit.
func stageSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s, 0::BIGINT AS %s FROM %s WITH NO DATA",
		pgIdent(stageTable), strings.Join(mapIdent(columns), ", "), pgIdent(ordColumn), pgFQN(table))
}

// mergeSQL inserts the last staged row per key, updating rows already stored
// under that key.
func mergeSQL(table string, columns, key []string) string {
	isKey := make(map[string]bool, len(key))
	for _, k := range key {
		isKey[k] = true
	}
	var set []string
	for _, c := range columns {
		if !isKey[c] {
			set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
		}
	}
	keys := strings.Join(mapIdent(key), ", ")
	cols := strings.Join(mapIdent(columns), ", ")

	q := fmt.Sprintf("INSERT INTO %s (%s) SELECT DISTINCT ON (%s) %s FROM %s ORDER BY %s, %s DESC ON CONFLICT (%s)",
		pgFQN(table), cols, keys, cols, pgIdent(stageTable), keys, pgIdent(ordColumn), keys)
	if len(set) == 0 {
		return q + " DO NOTHING"
	}
	return q + " DO UPDATE SET " + strings.Join(set, ", ")
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return describe("exec", err)
	}
	return nil
}

// describe surfaces the server-side detail and SQLSTATE when present.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %s (%s): %w", op, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
