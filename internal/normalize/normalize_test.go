package normalize

import (
	"fmt"
	"testing"

	"tmdbetl/internal/tmdb"
)

func opts() Options { return Options{CastLimit: 10} }

func record(id int64, mutate func(*tmdb.MovieRecord)) tmdb.MovieRecord {
	rec := tmdb.MovieRecord{
		Details: tmdb.MovieDetails{
			ID:          id,
			Title:       fmt.Sprintf("Movie %d", id),
			Overview:    "overview",
			ReleaseDate: "1999-03-31",
			VoteAverage: 8.0,
			Genres:      []tmdb.Genre{{ID: 18, Name: "Drama"}},
		},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{{ID: 100, Name: "Actor A", Character: "Lead"}},
			Crew: []tmdb.CrewMember{{ID: 900, Name: "Director A", Job: "Director"}},
		},
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}

func TestNormalize_FirstDirectorWins(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, func(r *tmdb.MovieRecord) {
			r.Credits.Crew = []tmdb.CrewMember{
				{ID: 1, Name: "W", Job: "Writer"},
				{ID: 5, Name: "A", Job: "Director"},
				{ID: 6, Name: "B", Job: "Director"},
			}
		}),
	}, opts())

	if len(ds.Movies) != 1 {
		t.Fatalf("movies=%d, want 1", len(ds.Movies))
	}
	if ds.Movies[0].DirectorID != 5 {
		t.Fatalf("DirectorID=%d, want 5 (first match)", ds.Movies[0].DirectorID)
	}
}

func TestNormalize_MissingDirectorDropsMovie(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, nil),
		record(2, func(r *tmdb.MovieRecord) {
			r.Credits.Crew = []tmdb.CrewMember{{ID: 1, Name: "W", Job: "Writer"}}
		}),
	}, opts())

	if len(ds.Movies) != 1 || ds.Movies[0].ID != 1 {
		t.Fatalf("movies=%+v, want only movie 1", ds.Movies)
	}
	for _, m := range ds.Movies {
		if m.DirectorID == 0 {
			t.Fatalf("movie %d persisted without director", m.ID)
		}
	}
	// The dropped movie still contributes genre and cast rows.
	if len(ds.MovieGenres) != 2 {
		t.Errorf("movie_genres=%d, want 2", len(ds.MovieGenres))
	}
	if len(ds.MovieCast) != 2 {
		t.Errorf("movie_cast=%d, want 2", len(ds.MovieCast))
	}
}

func TestNormalize_CastTruncatedToLimit(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, func(r *tmdb.MovieRecord) {
			r.Credits.Cast = nil
			for i := 0; i < 12; i++ {
				r.Credits.Cast = append(r.Credits.Cast, tmdb.CastMember{
					ID:        int64(200 + i),
					Name:      fmt.Sprintf("Actor %d", i),
					Character: fmt.Sprintf("Role %d", i),
				})
			}
		}),
	}, opts())

	if len(ds.MovieCast) != 10 {
		t.Fatalf("movie_cast=%d, want 10", len(ds.MovieCast))
	}
	// Billing order: first 10 in listed order, nothing sampled.
	for i, row := range ds.MovieCast {
		if row.PersonID != int64(200+i) {
			t.Fatalf("row %d person=%d, want %d", i, row.PersonID, 200+i)
		}
	}
}

func TestNormalize_ShortCastKeptWhole(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, func(r *tmdb.MovieRecord) {
			r.Credits.Cast = []tmdb.CastMember{
				{ID: 201, Name: "A", Character: "X"},
				{ID: 202, Name: "B", Character: "Y"},
			}
		}),
	}, opts())

	if len(ds.MovieCast) != 2 {
		t.Fatalf("movie_cast=%d, want 2", len(ds.MovieCast))
	}
}

func TestNormalize_GenreDedup_FirstNameWins(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, func(r *tmdb.MovieRecord) {
			r.Details.Genres = []tmdb.Genre{{ID: 18, Name: "Drama"}}
		}),
		record(2, func(r *tmdb.MovieRecord) {
			r.Details.Genres = []tmdb.Genre{{ID: 18, Name: "Drame"}, {ID: 28, Name: "Action"}}
		}),
	}, opts())

	if len(ds.Genres) != 2 {
		t.Fatalf("genres=%+v, want 2 unique", ds.Genres)
	}
	if ds.Genres[0].ID != 18 || ds.Genres[0].Name != "Drama" {
		t.Fatalf("genre 18 = %+v, want first-seen name Drama", ds.Genres[0])
	}
	// The relationship row is appended even when the genre id was known.
	if len(ds.MovieGenres) != 3 {
		t.Fatalf("movie_genres=%d, want 3", len(ds.MovieGenres))
	}
}

func TestNormalize_ZeroGenres(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, func(r *tmdb.MovieRecord) { r.Details.Genres = nil }),
	}, opts())

	if len(ds.MovieGenres) != 0 {
		t.Fatalf("movie_genres=%d, want 0", len(ds.MovieGenres))
	}
	if len(ds.Movies) != 1 {
		t.Fatalf("movies=%d, want 1 (no genres is not an error)", len(ds.Movies))
	}
}

func TestNormalize_PersonDedupAcrossRoles(t *testing.T) {
	t.Parallel()

	// Person 500 directs movie 1 and acts in movie 2 under a variant name.
	ds := Normalize([]tmdb.MovieRecord{
		record(1, func(r *tmdb.MovieRecord) {
			r.Credits.Crew = []tmdb.CrewMember{{ID: 500, Name: "C. Lee", Job: "Director"}}
			r.Credits.Cast = nil
		}),
		record(2, func(r *tmdb.MovieRecord) {
			r.Credits.Cast = []tmdb.CastMember{{ID: 500, Name: "Christopher Lee", Character: "Count"}}
		}),
	}, opts())

	count := 0
	for _, p := range ds.People {
		if p.ID == 500 {
			count++
			if p.Name != "C. Lee" {
				t.Errorf("person 500 name=%q, want first-seen %q", p.Name, "C. Lee")
			}
		}
	}
	if count != 1 {
		t.Fatalf("person 500 appears %d times, want 1", count)
	}
}

func TestNormalize_ReleaseDateParsing(t *testing.T) {
	t.Parallel()

	ds := Normalize([]tmdb.MovieRecord{
		record(1, nil),
		record(2, func(r *tmdb.MovieRecord) { r.Details.ReleaseDate = "" }),
	}, opts())

	if !ds.Movies[0].HasReleaseDate || ds.Movies[0].ReleaseDate.String() != "1999-03-31" {
		t.Errorf("movie 1 date=%v has=%v", ds.Movies[0].ReleaseDate, ds.Movies[0].HasReleaseDate)
	}
	if ds.Movies[1].HasReleaseDate {
		t.Errorf("movie 2 should have no release date")
	}
}

func TestNormalize_Empty(t *testing.T) {
	t.Parallel()

	ds := Normalize(nil, opts())
	if len(ds.Movies)+len(ds.Genres)+len(ds.People)+len(ds.MovieGenres)+len(ds.MovieCast) != 0 {
		t.Fatalf("want empty dataset, got %+v", ds)
	}
}
