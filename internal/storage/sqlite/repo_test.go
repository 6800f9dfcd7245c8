package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"titanic/internal/projection"
	"titanic/internal/schema"
	"titanic/internal/storage"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: filepath.Join(tb.TempDir(), "titanic.db")})
	if err != nil {
		tb.Fatalf("NewRepository: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func count(tb testing.TB, db *sql.DB, table string) int {
	tb.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + quoteFQN(table)).Scan(&n); err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestCopyFromAndExec(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	if err := r.Exec(ctx, `CREATE TABLE "People" ("Id" INTEGER PRIMARY KEY, "Name" TEXT, "Age" REAL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := r.CopyFrom(ctx, "People", []string{"Id", "Name", "Age"}, nil, [][]any{
		{1, "Braund, Mr. Owen", 22.0},
		{2, `O"Brien`, 28.5},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 || count(t, r.db, "People") != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}

	var name string
	var age float64
	if err := r.db.QueryRow(`SELECT "Name", "Age" FROM "People" WHERE "Id" = 2`).Scan(&name, &age); err != nil {
		t.Fatal(err)
	}
	if name != `O"Brien` || age != 28.5 {
		t.Fatalf("row 2 = %q %v", name, age)
	}

	if err := r.Exec(ctx, "   "); err != nil {
		t.Fatalf("blank Exec should be a no-op: %v", err)
	}
}

func TestCopyFrom_RollsBackOnError(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	if err := r.Exec(ctx, `CREATE TABLE t ("Id" INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}

	_, err := r.CopyFrom(ctx, "t", []string{"Id"}, nil, [][]any{{1}, {1}})
	if err == nil {
		t.Fatalf("expected primary key violation")
	}
	if got := count(t, r.db, "t"); got != 0 {
		t.Fatalf("rows after failed batch = %d, want 0", got)
	}

	if _, err := r.CopyFrom(ctx, "t", []string{"Id"}, nil, [][]any{{1, 2}}); err == nil || !strings.Contains(err.Error(), "row length") {
		t.Fatalf("err = %v, want row length mismatch", err)
	}
	if _, err := r.CopyFrom(ctx, "t", nil, nil, [][]any{{1}}); err == nil {
		t.Fatalf("expected error for empty columns")
	}
	if n, err := r.CopyFrom(ctx, "t", []string{"Id"}, nil, nil); n != 0 || err != nil {
		t.Fatalf("empty rows = %d, %v", n, err)
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cols []string
		key  []string
		want string
	}{
		{
			name: "plain",
			cols: []string{"Id", "Name"},
			want: `INSERT INTO "t" ("Id", "Name") VALUES (?, ?)`,
		},
		{
			name: "upsert",
			cols: []string{"Pclass", "Id", "Name"},
			key:  []string{"Pclass", "Id"},
			want: `INSERT INTO "t" ("Pclass", "Id", "Name") VALUES (?, ?, ?) ON CONFLICT ("Pclass", "Id") DO UPDATE SET "Name" = excluded."Name"`,
		},
		{
			name: "key_only",
			cols: []string{"Id"},
			key:  []string{"Id"},
			want: `INSERT INTO "t" ("Id") VALUES (?) ON CONFLICT ("Id") DO NOTHING`,
		},
	}
	for _, tc := range cases {
		if got := insertSQL("t", tc.cols, tc.key); got != tc.want {
			t.Errorf("%s:\n got %s\nwant %s", tc.name, got, tc.want)
		}
	}
}

func TestCopyFrom_KeyedLastRowWins(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	if err := r.Exec(ctx, `CREATE TABLE t ("Id" INTEGER PRIMARY KEY, "Name" TEXT)`); err != nil {
		t.Fatal(err)
	}

	cols, key := []string{"Id", "Name"}, []string{"Id"}
	if _, err := r.CopyFrom(ctx, "t", cols, key, [][]any{{1, "first"}, {2, "other"}, {1, "second"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if _, err := r.CopyFrom(ctx, "t", cols, key, [][]any{{2, "later batch"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}

	if got := count(t, r.db, "t"); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	for id, want := range map[int]string{1: "second", 2: "later batch"} {
		var name string
		if err := r.db.QueryRow(`SELECT "Name" FROM t WHERE "Id" = ?`, id).Scan(&name); err != nil {
			t.Fatal(err)
		}
		if name != want {
			t.Errorf("id %d name = %q, want %q", id, name, want)
		}
	}
}

func TestDialectSQLType(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	for typ, want := range map[projection.Type]string{
		projection.Integer: "INTEGER",
		projection.Real:    "REAL",
		projection.Text:    "TEXT",
	} {
		if got := d.SQLType(typ, true); got != want {
			t.Errorf("SQLType(%s) = %s, want %s", typ, got, want)
		}
	}
	if got := d.DeleteAllSQL("main.t"); got != `DELETE FROM "main"."t"` {
		t.Fatalf("DeleteAllSQL = %s", got)
	}
}

// TestSinkEndToEnd loads real projections through the storage sink twice
// with replace enabled and checks the tables converge.
func TestSinkEndToEnd(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	ps := []schema.Passenger{
		{PassengerID: 1, Name: "A", Sex: "male", Age: 22, Pclass: 3, Embarked: "S", Survived: 0, AgeRange: schema.Age18To29},
		{PassengerID: 2, Name: "B", Sex: "female", Age: 38, Pclass: 1, Embarked: "C", Survived: 1, AgeRange: schema.Age30To44},
		{PassengerID: 3, Name: "C", Sex: "female", Age: 28, Pclass: 3, Embarked: "U", Survived: -1, AgeRange: schema.Age18To29},
	}
	tables := make([]projection.Table, 0, len(projection.Catalog))
	for _, def := range projection.Catalog {
		tbl, err := projection.Build(def, ps)
		if err != nil {
			t.Fatal(err)
		}
		tables = append(tables, tbl)
	}

	opt := storage.SinkOptions{Job: "test", TablePrefix: "t_", AutoCreate: true, Replace: true, BatchSize: 2}
	for run := 0; run < 2; run++ {
		loaded, err := storage.Sink(ctx, "sqlite", &wrappedRepo{Repository: r}, tables, opt)
		if err != nil {
			t.Fatalf("run %d: Sink: %v", run, err)
		}
		if len(loaded) != len(projection.Catalog) {
			t.Fatalf("run %d: loaded %d tables", run, len(loaded))
		}
	}

	for _, def := range projection.Catalog {
		if got := count(t, r.db, "t_"+def.Name); got != len(ps) {
			t.Errorf("%s rows = %d, want %d", def.Name, got, len(ps))
		}
	}

	var ageRange string
	var age float64
	err := r.db.QueryRow(`SELECT "AgeRange", "Age" FROM "t_passengers_by_age_range" WHERE "PassengerId" = 2`).Scan(&ageRange, &age)
	if err != nil {
		t.Fatal(err)
	}
	if ageRange != "30-44" || age != 38 {
		t.Fatalf("row = %s %v", ageRange, age)
	}
}

// A passenger joined with two trip rows yields two rows with the same
// projection key; the sink keeps the later one instead of failing.
func TestSinkDuplicateKeys(t *testing.T) {
	t.Parallel()

	ps := []schema.Passenger{
		{PassengerID: 1, Name: "A", Sex: "male", Age: 22, Pclass: 3, Embarked: "S", Survived: 0, Parch: 0, AgeRange: schema.Age18To29},
		{PassengerID: 1, Name: "A", Sex: "male", Age: 22, Pclass: 3, Embarked: "S", Survived: 0, Parch: 1, AgeRange: schema.Age18To29},
		{PassengerID: 2, Name: "B", Sex: "female", Age: 38, Pclass: 1, Embarked: "C", Survived: 1, AgeRange: schema.Age30To44},
	}
	ps[1].Name = "A (second trip)"

	for _, batch := range []int{1, 10} {
		r := newRepo(t)
		tables := make([]projection.Table, 0, len(projection.Catalog))
		for _, def := range projection.Catalog {
			tbl, err := projection.Build(def, ps)
			if err != nil {
				t.Fatal(err)
			}
			tables = append(tables, tbl)
		}

		opt := storage.SinkOptions{Job: "test", AutoCreate: true, BatchSize: batch}
		loaded, err := storage.Sink(context.Background(), "sqlite", &wrappedRepo{Repository: r}, tables, opt)
		if err != nil {
			t.Fatalf("batch %d: Sink: %v", batch, err)
		}
		if loaded[0].Rows != 3 {
			t.Fatalf("batch %d: loaded rows = %d, want 3", batch, loaded[0].Rows)
		}

		for _, def := range projection.Catalog {
			if got := count(t, r.db, def.Name); got != 2 {
				t.Errorf("batch %d: %s rows = %d, want 2", batch, def.Name, got)
			}
			var name string
			q := fmt.Sprintf(`SELECT "Name" FROM %s WHERE "PassengerId" = 1`, quoteFQN(def.Name))
			if err := r.db.QueryRow(q).Scan(&name); err != nil {
				t.Fatal(err)
			}
			if name != "A (second trip)" {
				t.Errorf("batch %d: %s name = %q, want the last row", batch, def.Name, name)
			}
		}
	}
}
