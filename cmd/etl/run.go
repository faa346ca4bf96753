package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"tmdbetl/internal/config"
	"tmdbetl/internal/loader"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/metrics/datadog"
	"tmdbetl/internal/normalize"
	"tmdbetl/internal/storage"
	"tmdbetl/internal/tmdb"
)

// fetcher is the slice of the TMDB client this command needs; tests inject
// a fake.
type fetcher interface {
	TopRated(ctx context.Context) ([]tmdb.MovieSummary, error)
	MovieDetails(ctx context.Context, movieID int64) (tmdb.MovieRecord, error)
}

// deps are external seams for testability.
//
// When to use:
//   - Unit tests: inject fake client/repository factories and capture
//     stdout/stderr.
//   - Alternate runtimes: swap the metrics backend.
type deps struct {
	Stdout io.Writer
	Stderr io.Writer

	NewClient     func(cfg config.Config) fetcher
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	NewBackend    func(ctx context.Context, jobName string, tags []string) (backendCloser, error)
}

// runConfig holds the parsed flags for a run.
type runConfig struct {
	ConfigPath     string
	DSN            string
	StorageKind    string
	MetricsBackend string
	Validate       bool
	Verbose        bool
}

func parseFlags(args []string) (runConfig, error) {
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cfg runConfig
	fs.StringVar(&cfg.ConfigPath, "config", "configs/etl.json", "pipeline config JSON path")
	fs.StringVar(&cfg.DSN, "db", "", "override storage DSN (sqlite: database file path)")
	fs.StringVar(&cfg.StorageKind, "storage", "", "override storage kind (sqlite, postgres, mssql)")
	fs.StringVar(&cfg.MetricsBackend, "metrics-backend", "none", "metrics backend to use (datadog, none)")
	fs.BoolVar(&cfg.Validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&cfg.Verbose, "v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

// run executes the ETL command and returns an exit code.
//
// Exit codes:
//   - 0: success (an empty listing still counts; the store is rebuilt empty).
//   - 1: the load phase failed.
//   - 2: configuration/initialization error.
func run(ctx context.Context, args []string, d deps) int {
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}

	rc, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}

	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}
	if rc.DSN != "" {
		cfg.Storage.DSN = rc.DSN
	}
	if rc.StorageKind != "" {
		cfg.Storage.Kind = rc.StorageKind
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(d.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		fmt.Fprintf(d.Stderr, "configuration is invalid: %s\n", rc.ConfigPath)
		return 2
	}
	if rc.Validate {
		fmt.Fprintf(d.Stdout, "configuration is valid: %s\n", rc.ConfigPath)
		return 0
	}

	closeMetrics := setupMetrics(ctx, rc, cfg, d)
	defer closeMetrics()

	start := time.Now()
	if err := runPipeline(ctx, cfg, rc, d); err != nil {
		fmt.Fprintf(d.Stderr, "%v\n", err)
		return 1
	}
	if rc.Verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// setupMetrics decides the metrics backend (flag -> env -> none) and
// returns the shutdown hook: a final flush for the datadog backend, a
// no-op otherwise.
func setupMetrics(ctx context.Context, rc runConfig, cfg config.Config, d deps) func() {
	nop := func() {}

	backendName := rc.MetricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	switch backendName {
	case "datadog":
		if d.NewBackend == nil {
			log.Printf("metrics: no backend factory wired; metrics disabled")
			return nop
		}
		jobName := cfg.Job
		if jobName == "" {
			jobName = "movie_etl"
		}
		tags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))

		b, err := d.NewBackend(ctx, jobName, tags)
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return nop
		}
		log.Printf("metrics: backend=%v job_name=%v tags=%v", backendName, jobName, tags)
		metrics.SetBackend(b)

		// Close stops the periodic flush loop and performs a final Flush.
		return func() {
			if err := b.Close(); err != nil {
				log.Printf("metrics: close/flush error: %v", err)
			}
			metrics.SetBackend(nil)
		}

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
	return nop
}

// runPipeline performs Extract, Transform, and Load sequentially.
func runPipeline(ctx context.Context, cfg config.Config, rc runConfig, d deps) error {
	client := d.NewClient(cfg)

	fmt.Fprintln(d.Stdout, "Phase 1: Extract - fetching top rated movies from TMDB...")

	fetchStart := time.Now()
	summaries, err := client.TopRated(ctx)
	if err != nil {
		// Fail-fast listing contract: no partial pages, the run continues
		// with an empty dataset and the store is rebuilt empty.
		log.Printf("top rated listing failed: %v", err)
	}

	records := make([]tmdb.MovieRecord, 0, len(summaries))
	for i, s := range summaries {
		if rc.Verbose {
			log.Printf("fetching details for movie %d/%d: %s", i+1, len(summaries), s.Title)
		}
		rec, err := client.MovieDetails(ctx, s.ID)
		if err != nil {
			// Degrades to "no data for this movie": log and skip.
			log.Printf("skipping movie %d: %v", s.ID, err)
			metrics.IncCounter("etl_movies_skipped_total", 1, nil)
			continue
		}
		records = append(records, rec)
	}
	metrics.IncCounter("etl_movies_fetched_total", float64(len(records)), nil)
	metrics.ObserveHistogram("etl_fetch_duration_seconds", time.Since(fetchStart).Seconds(), nil)

	fmt.Fprintf(d.Stdout, "Extraction complete: collected data for %d movies.\n", len(records))

	fmt.Fprintln(d.Stdout, "Phase 2: Transform - normalizing into relational tables...")
	ds := normalize.Normalize(records, normalize.Options{CastLimit: cfg.API.CastLimit})
	fmt.Fprintf(d.Stdout, "Transformation complete: %d movies, %d genres, %d people.\n",
		len(ds.Movies), len(ds.Genres), len(ds.People))

	fmt.Fprintf(d.Stdout, "Phase 3: Load - loading into %s store...\n", cfg.Storage.Kind)
	repo, err := d.NewRepository(ctx, storage.Config{
		Kind: cfg.Storage.Kind,
		DSN:  os.ExpandEnv(cfg.Storage.DSN),
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	if err := loader.Load(ctx, repo, ds); err != nil {
		return err
	}

	fmt.Fprintf(d.Stdout, "ETL complete: store %q has been rebuilt.\n", cfg.Storage.DSN)
	return nil
}

