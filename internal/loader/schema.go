package loader

import (
	"tmdbetl/internal/normalize"
	"tmdbetl/internal/storage"
)

// Destination table names. The reporter's queries address these directly.
const (
	TableMovies      = "movies"
	TableGenres      = "genres"
	TablePeople      = "people"
	TableMovieGenres = "movie_genres"
	TableMovieCast   = "movie_cast"
)

// table pairs a spec with its column order and a row builder, so Load can
// treat all five tables uniformly.
type table struct {
	spec    storage.TableSpec
	columns []string
	rows    func(ds normalize.Dataset) [][]any
}

// tables returns the five destination tables in load order: entity tables
// first (movies, genres, people), junction tables after, so foreign-key
// producers exist before their referents. No store-level constraint
// enforces this; the order is the contract.
func tables() []table {
	return []table{
		{
			spec: storage.TableSpec{
				Name:       TableMovies,
				PrimaryKey: "id",
				Columns: []storage.ColumnSpec{
					{Name: "id", Type: "bigint"},
					{Name: "title", Type: "text"},
					{Name: "overview", Type: "text"},
					{Name: "release_date", Type: "date", Nullable: true},
					{Name: "vote_average", Type: "double"},
					{Name: "director_id", Type: "bigint"},
				},
			},
			columns: []string{"id", "title", "overview", "release_date", "vote_average", "director_id"},
			rows: func(ds normalize.Dataset) [][]any {
				out := make([][]any, 0, len(ds.Movies))
				for _, m := range ds.Movies {
					var date any
					if m.HasReleaseDate {
						date = m.ReleaseDate.String()
					}
					out = append(out, []any{m.ID, m.Title, m.Overview, date, m.VoteAverage, m.DirectorID})
				}
				return out
			},
		},
		{
			spec: storage.TableSpec{
				Name:       TableGenres,
				PrimaryKey: "id",
				Columns: []storage.ColumnSpec{
					{Name: "id", Type: "bigint"},
					{Name: "name", Type: "text"},
				},
			},
			columns: []string{"id", "name"},
			rows: func(ds normalize.Dataset) [][]any {
				out := make([][]any, 0, len(ds.Genres))
				for _, g := range ds.Genres {
					out = append(out, []any{g.ID, g.Name})
				}
				return out
			},
		},
		{
			spec: storage.TableSpec{
				Name:       TablePeople,
				PrimaryKey: "id",
				Columns: []storage.ColumnSpec{
					{Name: "id", Type: "bigint"},
					{Name: "name", Type: "text"},
				},
			},
			columns: []string{"id", "name"},
			rows: func(ds normalize.Dataset) [][]any {
				out := make([][]any, 0, len(ds.People))
				for _, p := range ds.People {
					out = append(out, []any{p.ID, p.Name})
				}
				return out
			},
		},
		{
			spec: storage.TableSpec{
				Name: TableMovieGenres,
				Columns: []storage.ColumnSpec{
					{Name: "movie_id", Type: "bigint"},
					{Name: "genre_id", Type: "bigint"},
				},
			},
			columns: []string{"movie_id", "genre_id"},
			rows: func(ds normalize.Dataset) [][]any {
				out := make([][]any, 0, len(ds.MovieGenres))
				for _, mg := range ds.MovieGenres {
					out = append(out, []any{mg.MovieID, mg.GenreID})
				}
				return out
			},
		},
		{
			spec: storage.TableSpec{
				Name: TableMovieCast,
				Columns: []storage.ColumnSpec{
					{Name: "movie_id", Type: "bigint"},
					{Name: "person_id", Type: "bigint"},
					{Name: "character_name", Type: "text"},
				},
			},
			columns: []string{"movie_id", "person_id", "character_name"},
			rows: func(ds normalize.Dataset) [][]any {
				out := make([][]any, 0, len(ds.MovieCast))
				for _, mc := range ds.MovieCast {
					out = append(out, []any{mc.MovieID, mc.PersonID, mc.CharacterName})
				}
				return out
			},
		},
	}
}
