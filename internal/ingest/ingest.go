package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/lox/carisekolah/internal/store"
)

// DefaultSourceURL is the public CSV export of the KPM school list sheet.
// It must be an /export?format=csv&gid=... URL; /edit URLs return HTML.
const DefaultSourceURL = "https://docs.google.com/spreadsheets/d/18Uh1UtPHDoo7WM38ax8A1BzH7fvQOnKKr4V0P9w1QfU/export?format=csv&gid=1678771376"

const drySampleSize = 3

type Config struct {
	SourceURL  string
	OutputPath string
	DryRun     bool
	// RetainDays prunes archived exports older than this after a
	// successful run. Zero keeps everything.
	RetainDays int
	// Out receives the dry-run sample.
	Out io.Writer
}

// Ingester converts the remote spreadsheet into the dataset file.
type Ingester struct {
	fetcher *Fetcher
	store   *store.Store
	cfg     Config
}

// New returns an Ingester. st may be nil to skip the audit log.
func New(fetcher *Fetcher, st *store.Store, cfg Config) *Ingester {
	if cfg.SourceURL == "" {
		cfg.SourceURL = DefaultSourceURL
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Ingester{fetcher: fetcher, store: st, cfg: cfg}
}

// Summary describes a completed ingestion.
type Summary struct {
	RawChars   int
	Rows       int
	Schools    int
	Dropped    int
	Duplicates int
	Flags      []FlagCount
	Written    string // empty on dry runs
}

// Run fetches, parses and writes the dataset. Any error leaves the existing
// dataset file untouched.
func (in *Ingester) Run(ctx context.Context) (*Summary, error) {
	run := in.startRun()

	summary, err := in.run(ctx, run)
	if run != nil {
		if err != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		} else {
			run.Success = true
		}
		if cerr := in.store.CompleteIngestRun(run); cerr != nil {
			log.Printf("ingest: complete run %d: %v", run.ID, cerr)
		}
	}
	if err != nil {
		return nil, err
	}

	if run != nil && !in.cfg.DryRun && in.cfg.RetainDays > 0 {
		if n, err := in.store.CleanupOldRawPayloads(in.cfg.RetainDays); err != nil {
			log.Printf("ingest: cleanup raw payloads: %v", err)
		} else if n > 0 {
			log.Printf("ingest: pruned %d archived exports older than %d days", n, in.cfg.RetainDays)
		}
	}
	return summary, nil
}

func (in *Ingester) startRun() *store.IngestRun {
	if in.store == nil {
		return nil
	}
	run, err := in.store.StartIngestRun(in.cfg.SourceURL, in.cfg.DryRun)
	if err != nil {
		log.Printf("ingest: start run: %v", err)
		return nil
	}
	return run
}

func (in *Ingester) run(ctx context.Context, run *store.IngestRun) (*Summary, error) {
	log.Printf("ingest: fetching %s", in.cfg.SourceURL)
	fetched, err := in.fetcher.Fetch(ctx, in.cfg.SourceURL)
	if err != nil {
		if run != nil {
			var se *StatusError
			if errors.As(err, &se) {
				run.HTTPStatus = sql.NullInt64{Int64: int64(se.Status), Valid: true}
			}
		}
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	if run != nil {
		if fetched.Status != 0 {
			run.HTTPStatus = sql.NullInt64{Int64: int64(fetched.Status), Valid: true}
		}
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(len(fetched.Body)), Valid: true}
		if !in.cfg.DryRun {
			if _, _, err := in.store.StoreRawPayload(&run.ID, in.cfg.SourceURL, fetched.Body); err != nil {
				log.Printf("ingest: archive payload: %v", err)
			}
		}
	}

	text, err := DecodeText(fetched.Body)
	if err != nil {
		return nil, err
	}

	res, err := Parse(text)
	if res != nil && run != nil {
		run.RowsParsed = sql.NullInt64{Int64: int64(res.Rows), Valid: true}
		run.RowsDropped = sql.NullInt64{Int64: int64(res.Dropped), Valid: true}
		run.Duplicates = sql.NullInt64{Int64: int64(res.Duplicates), Valid: true}
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	summary := &Summary{
		RawChars:   len(text),
		Rows:       res.Rows,
		Schools:    len(res.Schools),
		Dropped:    res.Dropped,
		Duplicates: res.Duplicates,
		Flags:      CountFlags(res.Schools),
	}
	logSummary(summary, res)

	if in.cfg.DryRun {
		return summary, in.writeSample(res)
	}

	if err := WriteDataset(in.cfg.OutputPath, res.Schools); err != nil {
		return nil, fmt.Errorf("write dataset: %w", err)
	}
	summary.Written = in.cfg.OutputPath
	if run != nil {
		run.SchoolsStored = sql.NullInt64{Int64: int64(summary.Schools), Valid: true}
	}
	log.Printf("ingest: wrote %s", in.cfg.OutputPath)
	return summary, nil
}

func logSummary(s *Summary, res *ParseResult) {
	log.Printf("ingest: raw csv %d chars", s.RawChars)
	log.Printf("ingest: parsed %d rows, %d schools with code", s.Rows, s.Schools)
	if s.Duplicates > 0 {
		log.Printf("ingest: skipped %d rows repeating an earlier school code", s.Duplicates)
	}
	if res.DroppedSample != nil {
		keys := make([]string, 0, len(res.DroppedSample))
		for k := range res.DroppedSample {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 5 {
			keys = keys[:5]
		}
		log.Printf("ingest: %d rows without kodSekolah skipped, sample keys: %s ...", s.Dropped, strings.Join(keys, ", "))
	}
	for _, f := range s.Flags {
		log.Printf("ingest: %d records flagged %s", f.Count, f.Flag)
	}
}

func (in *Ingester) writeSample(res *ParseResult) error {
	sample := res.Schools
	if len(sample) > drySampleSize {
		sample = sample[:drySampleSize]
	}
	b, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	_, err = fmt.Fprintf(in.cfg.Out, "--- DRY RUN: first %d schools (no file written) ---\n%s\n", len(sample), b)
	return err
}
