// Package loader persists a normalized Dataset into the relational store,
// replacing any tables of the same names.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tmdbetl/internal/metrics"
	"tmdbetl/internal/normalize"
	"tmdbetl/internal/storage"
)

// ErrTableLoad marks a persistence failure. The failing table's name is in
// the wrapped message; tables loaded before the failure stay in place (no
// cross-table rollback).
var ErrTableLoad = errors.New("loader: table load failed")

// Load writes all five tables in fixed order. The first failure aborts the
// remaining loads and returns an error wrapping ErrTableLoad.
func Load(ctx context.Context, repo storage.Repository, ds normalize.Dataset) error {
	for _, t := range tables() {
		rows := t.rows(ds)
		if err := repo.ReplaceTable(ctx, t.spec, t.columns, rows); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTableLoad, t.spec.Name, err)
		}
		metrics.IncCounter("etl_rows_loaded_total", float64(len(rows)), metrics.Labels{"table": t.spec.Name})
		log.Printf("loaded table %s (%d rows)", t.spec.Name, len(rows))
	}
	return nil
}
