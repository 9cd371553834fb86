package store

import (
	"database/sql"
	"time"
)

// IngestRun is the audit record of one spreadsheet conversion.
type IngestRun struct {
	ID                int64
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	SourceURL         string
	DryRun            bool
	HTTPStatus        sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	RowsParsed        sql.NullInt64
	SchoolsStored     sql.NullInt64
	RowsDropped       sql.NullInt64 // rows without a school code
	Duplicates        sql.NullInt64
	Success           bool
	ErrorMessage      sql.NullString
}

// StartIngestRun creates a new ingest run record and returns it.
func (s *Store) StartIngestRun(sourceURL string, dryRun bool) (*IngestRun, error) {
	run := &IngestRun{
		StartedAt: time.Now().UTC(),
		SourceURL: sourceURL,
		DryRun:    dryRun,
	}

	result, err := s.db.Exec(`
		INSERT INTO ingest_runs (started_at, source_url, dry_run, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.SourceURL, run.DryRun)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteIngestRun updates the ingest run with results.
func (s *Store) CompleteIngestRun(run *IngestRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE ingest_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			rows_parsed = ?,
			schools_stored = ?,
			rows_dropped = ?,
			duplicates = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.ResponseSizeBytes, run.RowsParsed,
		run.SchoolsStored, run.RowsDropped, run.Duplicates, run.Success, run.ErrorMessage, run.ID)
	return err
}

// RecentIngestRuns returns the latest runs, newest first.
func (s *Store) RecentIngestRuns(limit int) ([]IngestRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, source_url, dry_run, http_status,
		       response_size_bytes, rows_parsed, schools_stored, rows_dropped,
		       duplicates, success, error_message
		FROM ingest_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []IngestRun
	for rows.Next() {
		var r IngestRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.SourceURL, &r.DryRun,
			&r.HTTPStatus, &r.ResponseSizeBytes, &r.RowsParsed, &r.SchoolsStored,
			&r.RowsDropped, &r.Duplicates, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// LastSuccessfulRun returns the newest successful non-dry run, or nil.
func (s *Store) LastSuccessfulRun() (*IngestRun, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, finished_at, source_url, dry_run, http_status,
		       response_size_bytes, rows_parsed, schools_stored, rows_dropped,
		       duplicates, success, error_message
		FROM ingest_runs
		WHERE success = TRUE AND dry_run = FALSE
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`)

	var r IngestRun
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.SourceURL, &r.DryRun,
		&r.HTTPStatus, &r.ResponseSizeBytes, &r.RowsParsed, &r.SchoolsStored,
		&r.RowsDropped, &r.Duplicates, &r.Success, &r.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
