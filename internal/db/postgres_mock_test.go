package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMockStore(t *testing.T, fn func(*PostgresStore, sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := newPostgresStore(db)
	fn(store, mock)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresStore_Mocked(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveRun Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			r := run("aaa", 100, 10, 20)
			mock.ExpectBegin()
			mock.ExpectExec(`DELETE FROM measurements WHERE run_id IN \(SELECT id FROM runs WHERE suite = \$1 AND run_key = \$2\)`).
				WithArgs("suite", "aaa").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(`DELETE FROM runs WHERE suite = \$1 AND run_key = \$2`).
				WithArgs("suite", "aaa").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`INSERT INTO runs .* RETURNING id`).
				WithArgs("suite", "aaa", "aaa", int64(100), "cargo", sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			mock.ExpectExec(`INSERT INTO measurements`).
				WithArgs(int64(7), "bench_b", 10.0, "± 1", "ns/iter", "").
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectExec(`INSERT INTO measurements`).
				WithArgs(int64(7), "bench_a", 20.0, "± 1", "ns/iter", "").
				WillReturnResult(sqlmock.NewResult(2, 1))
			mock.ExpectCommit()

			assert.NoError(t, store.SaveRun(ctx, "suite", r))
		})
	})

	t.Run("SaveRun Insert Error Rolls Back", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec(`DELETE FROM measurements`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(`DELETE FROM runs`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`INSERT INTO runs`).WillReturnError(errors.New("insert error"))
			mock.ExpectRollback()

			err := store.SaveRun(ctx, "suite", run("aaa", 100, 1))
			assert.ErrorContains(t, err, "failed to insert run")
		})
	})

	t.Run("ListSuites", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT suite, COUNT\(\*\), MAX\(date\) FROM runs`).
				WillReturnRows(sqlmock.NewRows([]string{"suite", "count", "max"}).
					AddRow("a", 3, int64(300)).
					AddRow("b", 1, int64(100)))

			suites, err := store.ListSuites(ctx)
			require.NoError(t, err)
			assert.Equal(t, []SuiteInfo{{Name: "a", Runs: 3, LastDate: 300}, {Name: "b", Runs: 1, LastDate: 100}}, suites)
		})
	})

	t.Run("Series", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT r.date, r.commit_id, m.value, m.value_range, m.unit`).
				WithArgs("suite", "bench_a").
				WillReturnRows(sqlmock.NewRows([]string{"date", "commit_id", "value", "value_range", "unit"}).
					AddRow(int64(1), "aaa", 1.5, "± 1", "ns/iter"))

			points, err := store.Series(ctx, "suite", "bench_a")
			require.NoError(t, err)
			assert.Equal(t, []Point{{Date: 1, CommitID: "aaa", Value: 1.5, Range: "± 1", Unit: "ns/iter"}}, points)
		})
	})

	t.Run("LatestRun", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT id, date, tool, commit_json FROM runs WHERE suite = \$1`).
				WithArgs("suite").
				WillReturnRows(sqlmock.NewRows([]string{"id", "date", "tool", "commit_json"}).
					AddRow(int64(4), int64(100), "go", `{"id":"aaa","message":"m"}`))
			mock.ExpectQuery(`SELECT name, value, value_range, unit, extra FROM measurements WHERE run_id = \$1`).
				WithArgs(int64(4)).
				WillReturnRows(sqlmock.NewRows([]string{"name", "value", "value_range", "unit", "extra"}).
					AddRow("BenchmarkX", 12.0, "", "ns/op", "100 times"))

			latest, err := store.LatestRun(ctx, "suite")
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, "aaa", latest.Commit.ID)
			assert.Equal(t, "go", latest.Tool)
			require.Len(t, latest.Benches, 1)
			assert.Equal(t, "100 times", latest.Benches[0].Extra)
		})
	})

	t.Run("LatestRun Query Error", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT id, date, tool, commit_json FROM runs`).
				WillReturnError(errors.New("connection reset"))

			_, err := store.LatestRun(ctx, "suite")
			assert.ErrorContains(t, err, "connection reset")
		})
	})
}

func TestRebind(t *testing.T) {
	s := &sqlStore{dollar: true}
	assert.Equal(t, "SELECT $1, $2", s.rebind("SELECT ?, ?"))
	s.dollar = false
	assert.Equal(t, "SELECT ?, ?", s.rebind("SELECT ?, ?"))
}
