// Package datasource defines where pipeline inputs come from.
package datasource

import (
	"context"
	"errors"
	"io"
)

// ErrUnavailable is wrapped by every Source that cannot produce a reader.
var ErrUnavailable = errors.New("source unavailable")

// Source yields a fresh reader over one input table.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}
