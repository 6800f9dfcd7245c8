package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"titanic/internal/datasource"
)

// TestLocalOpen covers success, missing file, directory, and pre-canceled
// context. Table-driven to make behavior clear and extensible.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		prepare         func(t *testing.T) string // returns path to open
		cancel          bool
		wantErrIs       []error
		wantErrContains string
		wantContent     string
	}

	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "info.csv")
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
		return p
	}

	cases := []tc{
		{
			name:        "success_reads_content",
			prepare:     func(t *testing.T) string { return writeFile(t, "PassengerId\n1\n") },
			wantContent: "PassengerId\n1\n",
		},
		{
			name: "missing_file_is_unavailable",
			prepare: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			wantErrIs:       []error{datasource.ErrUnavailable, os.ErrNotExist},
			wantErrContains: "missing.csv",
		},
		{
			name:      "directory_is_unavailable",
			prepare:   func(t *testing.T) string { return t.TempDir() },
			wantErrIs: []error{datasource.ErrUnavailable},
		},
		{
			name:      "pre_canceled_context_short_circuits",
			prepare:   func(t *testing.T) string { return writeFile(t, "ignored") },
			cancel:    true,
			wantErrIs: []error{context.Canceled},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if c.cancel {
				cancel()
			}

			rc, err := NewLocal(c.prepare(t)).Open(ctx)
			if len(c.wantErrIs) > 0 {
				if err == nil {
					rc.Close()
					t.Fatalf("expected error, got nil")
				}
				for _, want := range c.wantErrIs {
					if !errors.Is(err, want) {
						t.Fatalf("errors.Is(%v, %v) = false", err, want)
					}
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q, want %q", got, c.wantContent)
			}
		})
	}
}

func TestNewLocalIn(t *testing.T) {
	t.Parallel()

	if got := NewLocalIn("", "a.csv").Name(); got != "a.csv" {
		t.Fatalf("empty dir: %q", got)
	}
	if got := NewLocalIn("data", "a.csv").Name(); got != filepath.Join("data", "a.csv") {
		t.Fatalf("joined: %q", got)
	}
	abs := filepath.Join(string(filepath.Separator), "tmp", "a.csv")
	if got := NewLocalIn("data", abs).Name(); got != abs {
		t.Fatalf("absolute: %q", got)
	}
}
