package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := newPostgresStore(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore: &sqlStore{db: db, dollar: true, returnID: true}}
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			suite TEXT NOT NULL,
			run_key TEXT NOT NULL,
			commit_id TEXT NOT NULL DEFAULT '',
			date BIGINT NOT NULL,
			tool TEXT NOT NULL,
			commit_json TEXT NOT NULL,
			UNIQUE (suite, run_key)
		);`,
		`CREATE TABLE IF NOT EXISTS measurements (
			seq BIGSERIAL PRIMARY KEY,
			run_id BIGINT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			value_range TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL,
			extra TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_run ON measurements(run_id, name);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_suite_date ON runs(suite, date);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
