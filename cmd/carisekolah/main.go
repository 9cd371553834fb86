package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/lox/carisekolah/internal/api"
	"github.com/lox/carisekolah/internal/dataset"
	"github.com/lox/carisekolah/internal/ingest"
	"github.com/lox/carisekolah/internal/store"
)

type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Serve the school search API."`
	Ingest  IngestCmd  `cmd:"" help:"Convert the KPM spreadsheet export into the dataset file."`
	History HistoryCmd `cmd:"" help:"List recent ingest runs from the audit log."`
}

type ServeCmd struct {
	Data       string        `default:"data/schools.json" env:"SCHOOLS_DATA" help:"Path to the dataset JSON file."`
	Port       string        `default:"8080" env:"PORT" help:"HTTP server port."`
	CORSOrigin []string      `name:"cors-origin" default:"*" env:"CORS_ORIGINS" help:"Allowed CORS origins."`
	StatsTTL   time.Duration `default:"1h" help:"How long computed statistics are cached."`
}

func (c *ServeCmd) Run(ctx context.Context) error {
	data, err := dataset.Load(c.Data)
	if err != nil {
		return err
	}
	log.Printf("loaded %d schools from %s", data.Len(), c.Data)

	server := api.NewServer(data, api.Config{
		Port:        c.Port,
		CORSOrigins: c.CORSOrigin,
		StatsTTL:    c.StatsTTL,
	})

	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type IngestCmd struct {
	SourceURL  string        `name:"source-url" default:"${default_source_url}" env:"SHEET_CSV_URL" help:"CSV export URL (http, https or ftp)."`
	Output     string        `default:"data/schools.json" help:"Where to write the dataset."`
	DryRun     bool          `env:"DRY_RUN" help:"Parse and report without writing the dataset."`
	DB         string        `name:"db" env:"INGEST_DB" help:"Optional SQLite audit log."`
	RetainDays int           `default:"90" help:"Prune archived exports older than this many days (0 keeps all)."`
	Timeout    time.Duration `default:"30s" help:"Per-request timeout."`
	MaxElapsed time.Duration `default:"2m" help:"Total retry budget for the download."`
}

func (c *IngestCmd) Run(ctx context.Context) error {
	var st *store.Store
	if c.DB != "" {
		var err error
		if st, err = store.Open(c.DB); err != nil {
			return err
		}
		defer st.Close()
	}

	in := ingest.New(ingest.NewFetcher(c.Timeout, c.MaxElapsed), st, ingest.Config{
		SourceURL:  c.SourceURL,
		OutputPath: c.Output,
		DryRun:     c.DryRun,
		RetainDays: c.RetainDays,
		Out:        os.Stdout,
	})
	summary, err := in.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Written != "" {
		log.Printf("wrote %d schools to %s", summary.Schools, summary.Written)
	}
	return nil
}

type HistoryCmd struct {
	DB    string `name:"db" default:"data/ingest.db" env:"INGEST_DB" help:"SQLite audit log."`
	Limit int    `default:"20" help:"Number of runs to show."`
}

func (c *HistoryCmd) Run() error {
	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.RecentIngestRuns(c.Limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tHTTP\tSCHOOLS\tDROPPED\tDUPES\tERROR")
	for _, r := range runs {
		status := "ok"
		switch {
		case !r.Success:
			status = "failed"
		case r.DryRun:
			status = "dry-run"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			status,
			nullInt(r.HTTPStatus.Int64, r.HTTPStatus.Valid),
			nullInt(r.SchoolsStored.Int64, r.SchoolsStored.Valid),
			nullInt(r.RowsDropped.Int64, r.RowsDropped.Valid),
			nullInt(r.Duplicates.Int64, r.Duplicates.Valid),
			r.ErrorMessage.String,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	last, err := st.LastSuccessfulRun()
	if err != nil {
		return fmt.Errorf("last successful run: %w", err)
	}
	if last == nil {
		fmt.Println("\nno successful ingest recorded")
		return nil
	}
	fmt.Printf("\nlast successful ingest: #%d at %s (%s schools)\n",
		last.ID, last.StartedAt.Local().Format(time.RFC3339),
		nullInt(last.SchoolsStored.Int64, last.SchoolsStored.Valid))
	return nil
}

func nullInt(v int64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprint(v)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("carisekolah"),
		kong.Description("Malaysian school directory: spreadsheet ingestion and search API."),
		kong.UsageOnError(),
		kong.Vars{"default_source_url": ingest.DefaultSourceURL},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := kctx.Run(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("interrupted")
			return
		}
		kctx.FatalIfErrorf(err)
	}
}
