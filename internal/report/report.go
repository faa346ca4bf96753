// Package report runs the fixed battery of analytical queries against the
// loaded store and prints each result set.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"tmdbetl/internal/storage"
)

// ErrQueryFailed marks a report query failure. The batch shares one failure
// boundary: the first failing query aborts the remainder. The store handle
// is the caller's to release (typically via defer), so it is closed whether
// or not the batch succeeds.
var ErrQueryFailed = errors.New("report: query failed")

// query pairs a human-readable heading with its SQL. The SQL sticks to the
// subset all three backends accept; row caps are not in that subset (sqlite
// and postgres take LIMIT, SQL Server takes TOP or FETCH), so Limit is
// applied to the materialized result instead.
type query struct {
	Title string
	SQL   string

	// Limit caps the printed rows. Zero means no cap.
	Limit int
}

// queries returns the five report queries in execution order.
func queries() []query {
	return []query{
		{
			Title: "1. The top 10 movies based on ratings",
			SQL: `SELECT title, vote_average
FROM movies
ORDER BY vote_average DESC`,
			Limit: 10,
		},
		{
			Title: "2. Number of films by genre",
			SQL: `SELECT g.name, COUNT(mg.movie_id) AS movie_count
FROM genres g
JOIN movie_genres mg ON g.id = mg.genre_id
GROUP BY g.name
ORDER BY movie_count DESC`,
		},
		{
			Title: "3. The 5 most prolific directors",
			SQL: `SELECT p.name, COUNT(m.id) AS directed_movies
FROM people p
JOIN movies m ON p.id = m.director_id
GROUP BY p.name
ORDER BY directed_movies DESC`,
			Limit: 5,
		},
		{
			Title: "4. Average rating per director (with >1 film)",
			SQL: `WITH director_avg_rating AS (
  SELECT p.name AS director_name,
         AVG(m.vote_average) AS avg_rating,
         COUNT(m.id) AS movie_count
  FROM people p
  JOIN movies m ON p.id = m.director_id
  GROUP BY p.name
)
SELECT director_name, avg_rating, movie_count
FROM director_avg_rating
WHERE movie_count > 1
ORDER BY avg_rating DESC`,
		},
		{
			// Dates are stored as ISO strings, so a plain comparison selects
			// release years after 2001 on every backend.
			Title: "5. Films after 2001",
			SQL: `SELECT title, release_date
FROM movies
WHERE release_date >= '2002-01-01'
ORDER BY release_date DESC`,
		},
	}
}

// Run executes the batch sequentially and writes formatted results to w.
// The first failure aborts the remaining queries and returns an error
// wrapping ErrQueryFailed.
func Run(ctx context.Context, repo storage.Repository, w io.Writer) error {
	for _, q := range queries() {
		fmt.Fprintf(w, "--- Query Result: %s ---\n\n", q.Title)

		res, err := repo.Select(ctx, q.SQL)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrQueryFailed, q.Title, err)
		}
		if q.Limit > 0 && len(res.Rows) > q.Limit {
			res.Rows = res.Rows[:q.Limit]
		}

		if res.Empty() {
			fmt.Fprint(w, "No results found.\n\n")
			continue
		}

		printResult(w, res)
		fmt.Fprint(w, "\n")
	}
	return nil
}

// printResult renders one result set as an aligned column table.
func printResult(w io.Writer, res storage.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for i, c := range res.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)

	for _, row := range res.Rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, formatValue(v))
		}
		fmt.Fprintln(tw)
	}

	_ = tw.Flush()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return fmt.Sprintf("%.2f", x)
	case time.Time:
		// pgx scans date columns as time.Time; sqlite keeps them as text.
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
