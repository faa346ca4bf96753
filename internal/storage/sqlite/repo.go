// Package sqlite implements storage.Repository on a SQLite database file
// via modernc.org/sqlite (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"tmdbetl/internal/storage"
)

// insertChunk bounds bound variables per INSERT; SQLite builds can cap
// SQLITE_MAX_VARIABLE_NUMBER as low as 999.
const insertChunk = 150

// Repo implements storage.Repository for SQLite.
//
// Dates are stored with DATE column type, which in SQLite carries NUMERIC
// affinity; ISO "2006-01-02" strings compare correctly as text, which is all
// the report queries need.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens the database file named by cfg.DSN, creating it if absent.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// ReplaceTable drops, recreates, and repopulates the table in one
// transaction, so readers never observe a half-loaded table.
func (r *Repo) ReplaceTable(ctx context.Context, spec storage.TableSpec, columns []string, rows [][]any) error {
	ddl, err := buildCreateTableSQL(spec)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlIdent(spec.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}

	for start := 0; start < len(rows); start += insertChunk {
		end := start + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertRows(ctx, tx, spec.Name, columns, rows[start:end]); err != nil {
			return fmt.Errorf("insert into %s: %w", spec.Name, err)
		}
	}

	return tx.Commit()
}

// Select runs one query and materializes the result.
func (r *Repo) Select(ctx context.Context, query string) (storage.Result, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return storage.Result{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return storage.Result{}, err
	}

	out := storage.Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		scan := make([]any, len(cols))
		for i := range vals {
			scan[i] = &vals[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return storage.Result{}, err
		}
		// TEXT scans as []byte with database/sql; normalize for printing.
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, rows.Err()
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		args = append(args, row...)
	}

	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// buildCreateTableSQL maps the portable column vocabulary onto SQLite types.
func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	for _, c := range t.Columns {
		typ, err := sqliteType(c.Type)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		col := fmt.Sprintf("%s %s", sqlIdent(c.Name), typ)
		if c.Name == t.PrimaryKey {
			col += " PRIMARY KEY"
		}
		if !c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

func sqliteType(portable string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(portable)) {
	case "integer", "bigint":
		return "INTEGER", nil
	case "text":
		return "TEXT", nil
	case "double":
		return "REAL", nil
	case "date":
		return "DATE", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", portable)
	}
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
