// Package storage defines the backend-agnostic repository interface the
// loader and reporter run against, plus the factory registry backends
// self-register with.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to open a repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Result is one executed query's column names and row values, in the order
// the store returned them.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the result set has no rows.
func (r Result) Empty() bool { return len(r.Rows) == 0 }

// Repository is a backend-agnostic interface for the loader and reporter.
//
// IMPORTANT: This interface is intentionally minimal. Each backend implements
// these semantics in its own idiomatic way (pgx pool, database/sql, etc).
type Repository interface {
	// Close releases backend resources (connections, prepared statements).
	//
	// When to use:
	//   - Always call Close when you are done with the repository; callers
	//     typically defer it right after New.
	//
	// Edge cases:
	//   - Treat Close as "call once".
	Close()

	// ReplaceTable destructively replaces the named table: any pre-existing
	// table of the same name is dropped, the table is recreated from spec,
	// and rows are bulk-inserted. No merge, no append.
	//
	// Edge cases:
	//   - Zero rows still replaces the table (an empty table remains).
	//   - Row values must line up with columns; nil values insert NULL.
	ReplaceTable(ctx context.Context, spec TableSpec, columns []string, rows [][]any) error

	// Select runs one read-only query and materializes the full result set.
	// Intended for the fixed report queries; result sets are small.
	Select(ctx context.Context, query string) (Result, error)
}

// ---- backend factories ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "sqlite", "postgres").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. This is intentional to fail fast and
//     avoid ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Concurrency:
//   - Safe for concurrent use with Register; New takes a read lock while
//     selecting the factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
