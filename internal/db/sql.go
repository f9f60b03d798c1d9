package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"benchkeep/internal/benchdata"
)

// sqlStore holds the queries shared by the SQLite and Postgres backends.
// Queries are written with ? placeholders and rebound for Postgres.
type sqlStore struct {
	db       *sql.DB
	dollar   bool
	returnID bool
}

func (s *sqlStore) rebind(query string) string {
	if !s.dollar {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// runKey identifies a run within a suite: the commit id, or the date for runs
// recorded without commit metadata.
func runKey(run benchdata.Run) string {
	if run.Commit.ID != "" {
		return run.Commit.ID
	}
	return "date:" + strconv.FormatInt(run.Date, 10)
}

// SaveRun indexes a run, replacing any earlier copy of the same run.
func (s *sqlStore) SaveRun(ctx context.Context, suite string, run benchdata.Run) error {
	commitJSON, err := json.Marshal(run.Commit)
	if err != nil {
		return fmt.Errorf("failed to marshal commit: %w", err)
	}
	key := runKey(run)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM measurements WHERE run_id IN (SELECT id FROM runs WHERE suite = ? AND run_key = ?)`), suite, key); err != nil {
		return fmt.Errorf("failed to delete measurements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM runs WHERE suite = ? AND run_key = ?`), suite, key); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	insert := `INSERT INTO runs (suite, run_key, commit_id, date, tool, commit_json) VALUES (?, ?, ?, ?, ?, ?)`
	args := []any{suite, key, run.Commit.ID, run.Date, run.Tool, string(commitJSON)}
	var runID int64
	if s.returnID {
		if err := tx.QueryRowContext(ctx, s.rebind(insert+` RETURNING id`), args...).Scan(&runID); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, insert, args...)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		if runID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read run id: %w", err)
		}
	}

	for _, b := range run.Benches {
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO measurements (run_id, name, value, value_range, unit, extra) VALUES (?, ?, ?, ?, ?, ?)`),
			runID, b.Name, b.Value, b.Range, b.Unit, b.Extra); err != nil {
			return fmt.Errorf("failed to insert measurement %s: %w", b.Name, err)
		}
	}

	return tx.Commit()
}

// ListSuites returns every indexed suite ordered by name.
func (s *sqlStore) ListSuites(ctx context.Context) ([]SuiteInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT suite, COUNT(*), MAX(date) FROM runs GROUP BY suite ORDER BY suite`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suites []SuiteInfo
	for rows.Next() {
		var si SuiteInfo
		if err := rows.Scan(&si.Name, &si.Runs, &si.LastDate); err != nil {
			return nil, err
		}
		suites = append(suites, si)
	}
	return suites, rows.Err()
}

// Series returns a measurement's values ordered by run date.
func (s *sqlStore) Series(ctx context.Context, suite, bench string) ([]Point, error) {
	query := s.rebind(`SELECT r.date, r.commit_id, m.value, m.value_range, m.unit
		FROM measurements m JOIN runs r ON r.id = m.run_id
		WHERE r.suite = ? AND m.name = ?
		ORDER BY r.date, r.id`)
	rows, err := s.db.QueryContext(ctx, query, suite, bench)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Date, &p.CommitID, &p.Value, &p.Range, &p.Unit); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestRun rebuilds the most recent run of a suite, or returns nil if the suite
// has no runs.
func (s *sqlStore) LatestRun(ctx context.Context, suite string) (*benchdata.Run, error) {
	var (
		runID      int64
		run        benchdata.Run
		commitJSON string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, date, tool, commit_json FROM runs WHERE suite = ? ORDER BY date DESC, id DESC LIMIT 1`), suite).
		Scan(&runID, &run.Date, &run.Tool, &commitJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(commitJSON), &run.Commit); err != nil {
		return nil, fmt.Errorf("failed to unmarshal commit: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT name, value, value_range, unit, extra FROM measurements WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Benches = []benchdata.Bench{}
	for rows.Next() {
		var b benchdata.Bench
		if err := rows.Scan(&b.Name, &b.Value, &b.Range, &b.Unit, &b.Extra); err != nil {
			return nil, err
		}
		run.Benches = append(run.Benches, b)
	}
	return &run, rows.Err()
}

// ImportDocument indexes every run of a document and returns the number indexed.
func ImportDocument(ctx context.Context, store Store, doc *benchdata.Document) (int, error) {
	n := 0
	for _, s := range doc.Entries {
		for _, run := range s.Runs {
			if err := store.SaveRun(ctx, s.Name, run); err != nil {
				return n, fmt.Errorf("suite %q run %s: %w", s.Name, runKey(run), err)
			}
			n++
		}
	}
	return n, nil
}
