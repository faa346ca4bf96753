// Package normalize flattens the combined TMDB records into the five
// relational tables the loader persists.
//
// The pass is pure and sequential: one walk over the input, two first-wins
// dictionaries (genres, people), and append-only relationship lists. Nothing
// here touches the network or the store.
package normalize

import (
	"github.com/golang-sql/civil"

	"tmdbetl/internal/tmdb"
)

// directorJob is the crew job title that marks a director credit.
const directorJob = "Director"

// Movie is one row of the movies table. DirectorID is always resolved;
// movies without one never reach the Dataset.
type Movie struct {
	ID          int64
	Title       string
	Overview    string
	ReleaseDate civil.Date
	// HasReleaseDate is false when the source date was empty or unparseable;
	// the loader stores NULL in that case.
	HasReleaseDate bool
	VoteAverage    float64
	DirectorID     int64
}

// Genre is one row of the genres table.
type Genre struct {
	ID   int64
	Name string
}

// Person is one row of the people table: anyone credited as a director or
// as one of a movie's first billed cast members.
type Person struct {
	ID   int64
	Name string
}

// MovieGenre is one row of the movie_genres junction table.
type MovieGenre struct {
	MovieID int64
	GenreID int64
}

// MovieCast is one row of the movie_cast junction table, in billing order.
type MovieCast struct {
	MovieID       int64
	PersonID      int64
	CharacterName string
}

// Dataset holds the five finished tables in load order.
type Dataset struct {
	Movies      []Movie
	Genres      []Genre
	People      []Person
	MovieGenres []MovieGenre
	MovieCast   []MovieCast
}

// Options tunes the normalization pass.
type Options struct {
	// CastLimit caps MovieCast rows per movie, taken in billing order
	// (truncation, not sampling).
	CastLimit int
}

// Normalize converts combined per-movie records into the relational Dataset.
//
// Per movie:
//   - every attached genre yields a MovieGenre row; the genre dictionary
//     keeps the first-seen name per id
//   - the director is the first crew entry with job "Director"; movies with
//     no such entry are dropped from Movies (integrity filter, not an error)
//   - at most opts.CastLimit cast entries yield MovieCast rows; the people
//     dictionary keeps the first-seen name per id
//
// The director filter touches Movies only: a dropped movie's MovieGenre and
// MovieCast rows stay in the output, so those junction rows can reference a
// movie id absent from Movies. Report queries join through Movies and never
// see the orphans.
//
// Genre and Person tables come out in first-seen order, which makes the
// pass deterministic for a given input order.
func Normalize(records []tmdb.MovieRecord, opts Options) Dataset {
	var ds Dataset

	seenGenres := make(map[int64]bool)
	seenPeople := make(map[int64]bool)

	addPerson := func(id int64, name string) {
		if seenPeople[id] {
			return
		}
		seenPeople[id] = true
		ds.People = append(ds.People, Person{ID: id, Name: name})
	}

	for _, rec := range records {
		movieID := rec.Details.ID

		for _, g := range rec.Details.Genres {
			if !seenGenres[g.ID] {
				seenGenres[g.ID] = true
				ds.Genres = append(ds.Genres, Genre{ID: g.ID, Name: g.Name})
			}
			ds.MovieGenres = append(ds.MovieGenres, MovieGenre{MovieID: movieID, GenreID: g.ID})
		}

		director, ok := resolveDirector(rec.Credits.Crew)
		if ok {
			// The director joins the people table even without a cast credit.
			addPerson(director.ID, director.Name)
		}

		cast := rec.Credits.Cast
		if len(cast) > opts.CastLimit {
			cast = cast[:opts.CastLimit]
		}
		for _, c := range cast {
			addPerson(c.ID, c.Name)
			ds.MovieCast = append(ds.MovieCast, MovieCast{
				MovieID:       movieID,
				PersonID:      c.ID,
				CharacterName: c.Character,
			})
		}

		if !ok {
			// Only the movies table is filtered; the genre and cast rows
			// appended above stay.
			continue
		}

		m := Movie{
			ID:          movieID,
			Title:       rec.Details.Title,
			Overview:    rec.Details.Overview,
			VoteAverage: rec.Details.VoteAverage,
			DirectorID:  director.ID,
		}
		if d, err := civil.ParseDate(rec.Details.ReleaseDate); err == nil {
			m.ReleaseDate = d
			m.HasReleaseDate = true
		}
		ds.Movies = append(ds.Movies, m)
	}

	return ds
}

// resolveDirector returns the first crew entry whose job is "Director".
// First match wins; later director credits are ignored.
func resolveDirector(crew []tmdb.CrewMember) (tmdb.CrewMember, bool) {
	for _, m := range crew {
		if m.Job == directorJob {
			return m, true
		}
	}
	return tmdb.CrewMember{}, false
}
