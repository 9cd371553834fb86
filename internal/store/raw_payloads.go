package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// PayloadHash returns the hex sha256 used to deduplicate archived exports.
func PayloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// StoreRawPayload archives a gzip-compressed copy of payload. An export
// identical to one already archived is not stored again; created reports
// whether a new row was written and id is the row holding the payload.
func (s *Store) StoreRawPayload(runID *int64, sourceURL string, payload []byte) (id int64, created bool, err error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, false, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, false, fmt.Errorf("close gzip: %w", err)
	}

	hash := PayloadHash(payload)

	var ingestRunID sql.NullInt64
	if runID != nil {
		ingestRunID = sql.NullInt64{Int64: *runID, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO raw_payloads
		(ingest_run_id, fetched_at, source_url, payload_compressed, payload_hash, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, ingestRunID, time.Now().UTC(), sourceURL, buf.Bytes(), hash, len(payload))
	if err != nil {
		return 0, false, fmt.Errorf("insert raw payload: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		err := s.db.QueryRow(`SELECT id FROM raw_payloads WHERE payload_hash = ?`, hash).Scan(&id)
		return id, false, err
	}

	id, err = result.LastInsertId()
	return id, true, err
}

// GetRawPayload retrieves and decompresses a stored payload by ID.
func (s *Store) GetRawPayload(id int64) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT payload_compressed FROM raw_payloads WHERE id = ?`, id).
		Scan(&compressed)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// CleanupOldRawPayloads deletes archived exports older than retentionDays.
// Returns the number of deleted records.
func (s *Store) CleanupOldRawPayloads(retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result, err := s.db.Exec(`DELETE FROM raw_payloads WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
