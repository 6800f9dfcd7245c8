package mssql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mssql "github.com/microsoft/go-mssqldb"

	"titanic/internal/projection"
	"titanic/internal/storage"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return newFromDB(db), mock
}

func TestMsIdent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"simple", "[simple]"},
		{"brack]et", "[brack]]et]"},
		{`weird]]name`, `[weird]]]]name]`},
	}
	for _, tc := range cases {
		if got := msIdent(tc.in); got != tc.want {
			t.Fatalf("msIdent(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestMsFQN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"table", "[table]"},
		{"dbo.table", "[dbo].[table]"},
		{"sales.q4.table", "[sales].[q4].[table]"},
	}
	for _, tc := range cases {
		if got := msFQN(tc.in); got != tc.want {
			t.Fatalf("msFQN(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestDialect(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	cases := []struct {
		typ  projection.Type
		key  bool
		want string
	}{
		{projection.Integer, true, "BIGINT"},
		{projection.Real, false, "FLOAT"},
		{projection.Text, true, "NVARCHAR(64)"},
		{projection.Text, false, "NVARCHAR(MAX)"},
	}
	for _, tc := range cases {
		if got := d.SQLType(tc.typ, tc.key); got != tc.want {
			t.Errorf("SQLType(%s, %v) = %s, want %s", tc.typ, tc.key, got, tc.want)
		}
	}

	def, _ := projection.Lookup("women_survivors_by_class")
	got, err := d.CreateTableSQL(storage.TableDefFor("dbo.women_survivors_by_class", def, d))
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"IF OBJECT_ID(N'[dbo].[women_survivors_by_class]', N'U') IS NULL\nCREATE TABLE [dbo].[women_survivors_by_class] (",
		"[Sex] NVARCHAR(64) NOT NULL",
		"[Name] NVARCHAR(MAX) NOT NULL",
		"PRIMARY KEY ([Pclass], [Sex], [Survived], [PassengerId])",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DDL missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "IF NOT EXISTS") {
		t.Errorf("DDL uses IF NOT EXISTS:\n%s", got)
	}
}

func TestCopyFrom(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	cols := []string{"PassengerId", "Name"}
	query := mssql.CopyIn("[dbo].[t]", mssql.BulkOptions{}, cols...)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(query)
	prep.ExpectExec().WithArgs(1, "A").WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs(2, "B").WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.CopyFrom(context.Background(), "dbo.t", cols, nil, [][]any{{1, "A"}, {2, "B"}})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertSQL(t *testing.T) {
	t.Parallel()

	stage := stageSQL("dbo.t", []string{"Pclass", "PassengerId", "Name"})
	wantStage := []string{
		"SELECT TOP 0 [Pclass], [PassengerId], [Name] INTO [#titanic_stage] FROM [dbo].[t]",
		"ALTER TABLE [#titanic_stage] ADD [titanic_ord] BIGINT NULL",
	}
	for i := range wantStage {
		if stage[i] != wantStage[i] {
			t.Errorf("stage[%d] =\n%s\nwant\n%s", i, stage[i], wantStage[i])
		}
	}

	merge := mergeSQL("dbo.t", []string{"Pclass", "PassengerId", "Name"}, []string{"Pclass", "PassengerId"})
	wantMerge := []string{
		"DELETE T FROM [dbo].[t] AS T INNER JOIN [#titanic_stage] AS S ON T.[Pclass] = S.[Pclass] AND T.[PassengerId] = S.[PassengerId]",
		"INSERT INTO [dbo].[t] ([Pclass], [PassengerId], [Name]) SELECT [Pclass], [PassengerId], [Name] FROM " +
			"(SELECT [Pclass], [PassengerId], [Name], ROW_NUMBER() OVER (PARTITION BY [Pclass], [PassengerId] ORDER BY [titanic_ord] DESC) AS [titanic_rn] " +
			"FROM [#titanic_stage]) AS S WHERE [titanic_rn] = 1",
		"DROP TABLE [#titanic_stage]",
	}
	for i := range wantMerge {
		if merge[i] != wantMerge[i] {
			t.Errorf("merge[%d] =\n%s\nwant\n%s", i, merge[i], wantMerge[i])
		}
	}
}

// A keyed load stages every row with its ordinal so that a repeated key
// resolves to the last row.
func TestCopyFrom_KeyedStagesAndMerges(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	cols := []string{"PassengerId", "Name"}
	key := []string{"PassengerId"}

	mock.ExpectBegin()
	for _, q := range stageSQL("t", cols) {
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	prep := mock.ExpectPrepare(mssql.CopyIn(stageTable, mssql.BulkOptions{}, "PassengerId", "Name", ordColumn))
	prep.ExpectExec().WithArgs(1, "A", int64(0)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs(1, "B", int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 2))
	for _, q := range mergeSQL("t", cols, key) {
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	n, err := repo.CopyFrom(context.Background(), "t", cols, key, [][]any{{1, "A"}, {1, "B"}})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFrom_MergeErrorRollsBack(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	cols := []string{"PassengerId"}
	boom := errors.New("boom")

	mock.ExpectBegin()
	for _, q := range stageSQL("t", cols) {
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	prep := mock.ExpectPrepare(mssql.CopyIn(stageTable, mssql.BulkOptions{}, "PassengerId", ordColumn))
	prep.ExpectExec().WithArgs(1, int64(0)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(mergeSQL("t", cols, cols)[0]).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.CopyFrom(context.Background(), "t", cols, cols, [][]any{{1}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFrom_RowErrorRollsBack(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	cols := []string{"PassengerId"}
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectPrepare(mssql.CopyIn("[t]", mssql.BulkOptions{}, cols...)).
		ExpectExec().WithArgs(1).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.CopyFrom(context.Background(), "t", cols, nil, [][]any{{1}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFrom_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	if n, err := repo.CopyFrom(context.Background(), "t", []string{"a"}, []string{"a"}, nil); n != 0 || err != nil {
		t.Fatalf("CopyFrom(nil) = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestExec(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectExec("TRUNCATE TABLE [t]").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Exec(context.Background(), Dialect{}.DeleteAllSQL("t")); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://%zz"}); err == nil {
		t.Fatalf("expected DSN error")
	}
}
