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
	"tmdbetl/internal/report"
	"tmdbetl/internal/storage"
)

// deps are external seams for testability.
type deps struct {
	Stdout io.Writer
	Stderr io.Writer
}

// runConfig holds the parsed flags for a run.
type runConfig struct {
	ConfigPath  string
	DSN         string
	StorageKind string
	Verbose     bool
}

func parseFlags(args []string) (runConfig, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cfg runConfig
	fs.StringVar(&cfg.ConfigPath, "config", "", "pipeline config JSON path (optional when -db is set)")
	fs.StringVar(&cfg.DSN, "db", "", "storage DSN (sqlite: database file path)")
	fs.StringVar(&cfg.StorageKind, "storage", "", "storage kind (sqlite, postgres, mssql)")
	fs.BoolVar(&cfg.Verbose, "v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

// run executes the report command and returns an exit code.
//
// Exit codes:
//   - 0: all queries printed (empty result sets included).
//   - 1: a query failed; the batch stopped there.
//   - 2: configuration error.
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

	store, err := resolveStore(rc, d)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}

	repo, err := storage.New(ctx, store)
	if err != nil {
		fmt.Fprintf(d.Stderr, "open storage: %v\n", err)
		return 2
	}
	defer repo.Close()

	if rc.Verbose {
		log.Printf("running report against %s store %q", store.Kind, store.DSN)
	}

	start := time.Now()
	if err := report.Run(ctx, repo, d.Stdout); err != nil {
		fmt.Fprintf(d.Stderr, "%v\n", err)
		return 1
	}
	if rc.Verbose {
		log.Printf("report completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// resolveStore picks the store from flags, falling back to the config file
// when -db is not given. Flags beat the file field for field.
func resolveStore(rc runConfig, d deps) (storage.Config, error) {
	store := storage.Config{Kind: rc.StorageKind, DSN: rc.DSN}

	if rc.ConfigPath != "" {
		cfg, err := config.Load(rc.ConfigPath)
		if err != nil {
			return storage.Config{}, err
		}
		if store.Kind == "" {
			store.Kind = cfg.Storage.Kind
		}
		if store.DSN == "" {
			store.DSN = cfg.Storage.DSN
		}
	}

	if store.DSN == "" {
		return storage.Config{}, fmt.Errorf("no store selected: pass -db or -config")
	}
	if store.Kind == "" {
		store.Kind = "sqlite"
	}
	store.DSN = os.ExpandEnv(store.DSN)
	return store, nil
}
