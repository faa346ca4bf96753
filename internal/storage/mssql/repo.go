// Package mssql implements storage.Repository on Microsoft SQL Server via
// database/sql and the go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"tmdbetl/internal/storage"
)

// SQL Server caps parameters per statement at 2100; keep headroom.
const insertChunk = 150

// Repo implements storage.Repository for SQL Server.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New opens a connection for cfg.DSN and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
// transaction.
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

	drop := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s",
		strings.ReplaceAll(spec.Name, "'", "''"), sqlIdent(spec.Name))
	if _, err := tx.ExecContext(ctx, drop); err != nil {
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

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "@p%d", n)
			n++
		}
		b.WriteString(")")
		args = append(args, row...)
	}

	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// buildCreateTableSQL maps the portable column vocabulary onto T-SQL types.
func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string
	for _, c := range t.Columns {
		typ, err := mssqlType(c.Type)
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

func mssqlType(portable string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(portable)) {
	case "integer":
		return "int", nil
	case "bigint":
		return "bigint", nil
	case "text":
		return "nvarchar(max)", nil
	case "double":
		return "float", nil
	case "date":
		return "date", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", portable)
	}
}

func sqlIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
