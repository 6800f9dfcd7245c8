// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. Keyed batches are bulk-copied into a temporary
// table and merged into the target inside one transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return newFromDB(db), func() { _ = db.Close() }, nil
}

// newFromDB wraps an open handle; tests pass a sqlmock connection.
func newFromDB(db *sql.DB) *Repository { return &Repository{db: db} }

// Session-scoped staging table used by keyed loads, and its ordinal column.
const (
	stageTable = "#titanic_stage"
	ordColumn  = "titanic_ord"
)

// CopyFrom bulk-copies rows into table. With a key, rows go through a staging
// table and replace existing rows with the same key; among rows sharing a key
// the last one wins.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns, key []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if len(key) == 0 {
		n, err := bulkCopy(ctx, tx, msFQN(table), columns, rows)
		if err != nil {
			rollback()
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		return n, nil
	}

	for _, q := range stageSQL(table, columns) {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			rollback()
			return 0, fmt.Errorf("stage %s: %w", table, err)
		}
	}

	staged := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			rollback()
			return 0, fmt.Errorf("bulk row %d: %d values for %d columns", i, len(row), len(columns))
		}
		staged[i] = append(append(make([]any, 0, len(row)+1), row...), int64(i))
	}
	n, err := bulkCopy(ctx, tx, stageTable, append(append([]string(nil), columns...), ordColumn), staged)
	if err != nil {
		rollback()
		return 0, err
	}

	for _, q := range mergeSQL(table, columns, key) {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			rollback()
			return 0, fmt.Errorf("merge into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// bulkCopy streams rows into target through the bulk copy API and returns the
// rows the server reports.
func bulkCopy(ctx context.Context, tx *sql.Tx, target string, columns []string, rows [][]any) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(target, mssql.BulkOptions{}, columns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if len(rows[i]) != len(columns) {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %d values for %d columns", i, len(rows[i]), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	// An Exec without arguments flushes the bulk batch.
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// stageSQL creates an empty staging copy of table plus the ordinal column.
func stageSQL(table string, columns []string) []string {
	return []string{
		fmt.Sprintf("SELECT TOP 0 %s INTO %s FROM %s",
			strings.Join(mapIdent(columns), ", "), msIdent(stageTable), msFQN(table)),
		fmt.Sprintf("ALTER TABLE %s ADD %s BIGINT NULL", msIdent(stageTable), msIdent(ordColumn)),
	}
}

// mergeSQL deletes the target rows whose key is staged, inserts the last
// staged row per key and drops the staging table.
func mergeSQL(table string, columns, key []string) []string {
	on := make([]string, len(key))
	for i, k := range key {
		on[i] = fmt.Sprintf("T.%s = S.%s", msIdent(k), msIdent(k))
	}
	cols := strings.Join(mapIdent(columns), ", ")
	return []string{
		fmt.Sprintf("DELETE T FROM %s AS T INNER JOIN %s AS S ON %s",
			msFQN(table), msIdent(stageTable), strings.Join(on, " AND ")),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM (SELECT %s, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s DESC) AS %s FROM %s) AS S WHERE %s = 1",
			msFQN(table), cols, cols, cols,
			strings.Join(mapIdent(key), ", "), msIdent(ordColumn), msIdent("titanic_rn"),
			msIdent(stageTable), msIdent("titanic_rn")),
		"DROP TABLE " + msIdent(stageTable),
	}
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.survivors" to
// "[dbo].[survivors]". If no dot is present, returns a single quoted ident.
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = msIdent(c)
	}
	return out
}
