// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"titanic/internal/datasource"
)

// Local opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path. Relative paths resolve against the
// working directory at Open time.
func NewLocal(path string) *Local { return &Local{path: path} }

// NewLocalIn returns a Local for name inside dir. An empty dir or an absolute
// name leaves name unchanged.
func NewLocalIn(dir, name string) *Local {
	if dir == "" || filepath.IsAbs(name) {
		return NewLocal(name)
	}
	return NewLocal(filepath.Join(dir, name))
}

var _ datasource.Source = (*Local)(nil)

// Name returns the configured path.
func (l *Local) Name() string { return l.path }

// Open returns the file for reading. A canceled context short-circuits
// without touching the filesystem. Filesystem errors wrap both the path and
// datasource.ErrUnavailable, and keep os.ErrNotExist / os.ErrPermission
// reachable through errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", datasource.ErrUnavailable, l.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", datasource.ErrUnavailable, l.path, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", datasource.ErrUnavailable, l.path)
	}
	return f, nil
}
