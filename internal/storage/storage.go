// Package storage holds the backend-agnostic contract for SQL sinks and the
// registry that concrete backends add themselves to at init time.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and opens a backend.
type Config struct {
	Kind string
	DSN  string
}

// Repository is one open connection to a SQL database. A single Repository
// loads every projection table.
type Repository interface {
	// CopyFrom bulk-loads rows (aligned with columns) into table and returns
	// the number of rows the backend reports as written. With a non-empty
	// key, a row replaces any stored row with the same key values and, among
	// rows sharing a key, the last one wins.
	CopyFrom(ctx context.Context, table string, columns, key []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds or replaces the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
