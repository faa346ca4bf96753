// Package postgres implements storage.Repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tmdbetl/internal/storage"
)

// Repo implements storage.Repository for Postgres.
//
// Replace semantics use DROP TABLE IF EXISTS inside a transaction, matching
// the sqlite backend; CASCADE is deliberately not used, so a table another
// object depends on fails the load instead of silently dropping dependents.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a pool for cfg.DSN and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// ReplaceTable drops, recreates, and repopulates the table in one
// transaction. Bulk rows go in via COPY.
func (r *Repo) ReplaceTable(ctx context.Context, spec storage.TableSpec, columns []string, rows [][]any) error {
	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+sqlIdent(spec.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}

	if len(rows) > 0 {
		copyable, err := copyRows(spec, columns, rows)
		if err != nil {
			return fmt.Errorf("copy into %s: %w", spec.Name, err)
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{spec.Name},
			columns,
			pgx.CopyFromRows(copyable),
		)
		if err != nil {
			return fmt.Errorf("copy into %s: %w", spec.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// Select runs one query and materializes the result.
func (r *Repo) Select(ctx context.Context, query string) (storage.Result, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return storage.Result{}, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := storage.Result{Columns: make([]string, len(fields))}
	for i, f := range fields {
		out.Columns[i] = f.Name
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return storage.Result{}, err
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, rows.Err()
}

// copyRows prepares row values for CopyFrom. Date columns arrive as ISO
// strings, and the binary COPY protocol has no encode plan for string ->
// date, so they are parsed into time.Time up front. Nil values pass through.
func copyRows(spec storage.TableSpec, columns []string, rows [][]any) ([][]any, error) {
	colType := make(map[string]string, len(spec.Columns))
	for _, c := range spec.Columns {
		colType[c.Name] = strings.ToLower(strings.TrimSpace(c.Type))
	}

	var dateCols []int
	for i, name := range columns {
		if colType[name] == "date" {
			dateCols = append(dateCols, i)
		}
	}
	if len(dateCols) == 0 {
		return rows, nil
	}

	out := make([][]any, len(rows))
	for ri, row := range rows {
		conv := make([]any, len(row))
		copy(conv, row)
		for _, ci := range dateCols {
			s, ok := conv[ci].(string)
			if !ok {
				continue
			}
			d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("column %s: bad date %q: %v", columns[ci], s, err)
			}
			conv[ci] = d
		}
		out[ri] = conv
	}
	return out, nil
}

// buildCreateTableSQL maps the portable column vocabulary onto Postgres types.
func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	for _, c := range t.Columns {
		typ, err := pgType(c.Type)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		col := fmt.Sprintf("%s %s", sqlIdent(c.Name), typ)
		if c.Name == t.PrimaryKey {
			col += " PRIMARY KEY"
		} else if !c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

func pgType(portable string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(portable)) {
	case "integer":
		return "integer", nil
	case "bigint":
		return "bigint", nil
	case "text":
		return "text", nil
	case "double":
		return "double precision", nil
	case "date":
		return "date", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", portable)
	}
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
