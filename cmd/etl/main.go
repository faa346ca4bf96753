package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"tmdbetl/internal/config"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/metrics/datadog"
	"tmdbetl/internal/storage"
	"tmdbetl/internal/tmdb"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "tmdbetl/internal/storage/all"
)

// backendCloser is the minimal interface used by this command to manage a
// metrics backend.
type backendCloser interface {
	metrics.Backend
	Close() error
}

// main is intentionally small: it wires real dependencies and exits with a code.
func main() {
	code := run(context.Background(), os.Args[1:], deps{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewClient: func(cfg config.Config) fetcher {
			return tmdb.NewClient(http.DefaultClient, tmdb.Options{
				APIKey:    cfg.API.Key,
				BaseURL:   cfg.API.BaseURL,
				Language:  cfg.API.Language,
				Pages:     cfg.API.Pages,
				MaxMovies: cfg.API.MaxMovies,
				Timeout:   30 * time.Second,
			})
		},
		NewRepository: storage.New,
		NewBackend: func(ctx context.Context, jobName string, tags []string) (backendCloser, error) {
			return datadog.NewBackend(ctx, datadog.Options{
				JobName: jobName,
				Tags:    tags,
			})
		},
	})
	os.Exit(code)
}
