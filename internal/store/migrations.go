package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS ingest_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    source_url TEXT NOT NULL,
    dry_run BOOLEAN NOT NULL DEFAULT FALSE,
    http_status INTEGER,
    response_size_bytes INTEGER,
    rows_parsed INTEGER,
    schools_stored INTEGER,
    rows_dropped INTEGER,
    duplicates INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at);
`,
	},
	{
		Version:     2,
		Description: "Archive raw spreadsheet exports",
		SQL: `
CREATE TABLE IF NOT EXISTS raw_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ingest_run_id INTEGER REFERENCES ingest_runs(id),
    fetched_at DATETIME NOT NULL,
    source_url TEXT NOT NULL,
    payload_compressed BLOB NOT NULL,
    payload_hash TEXT NOT NULL UNIQUE,
    size_bytes INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_payloads_fetched ON raw_payloads(fetched_at);
`,
	},
	{
		Version:     3,
		Description: "Index successful runs",
		SQL:         `CREATE INDEX IF NOT EXISTS idx_ingest_runs_success ON ingest_runs(success, started_at);`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	current, err := s.MigrationVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		log.Printf("store: applied migration %d - %s", m.Version, m.Description)
	}
	return nil
}

func (s *Store) apply(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Description, time.Now().UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// MigrationVersion returns the highest applied migration, or 0 on a fresh
// database.
func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}
