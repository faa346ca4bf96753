package tmdb

// MovieSummary is one entry of the /movie/top_rated listing. Only the fields
// the pipeline consumes are mapped; the API returns many more.
type MovieSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// MovieDetails is the /movie/{id} payload.
type MovieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Genres      []Genre `json:"genres"`
}

// Genre is a genre reference as embedded in movie details.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credits is the /movie/{id}/credits payload.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one billed cast entry. The slice order in Credits.Cast is
// the source's billing order.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

// CrewMember is one crew entry; Job distinguishes directors, writers, etc.
type CrewMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// MovieRecord is the combined per-movie result handed to the normalizer.
type MovieRecord struct {
	Details MovieDetails
	Credits Credits
}

// topRatedPage is the envelope of one listing page.
type topRatedPage struct {
	Page    int            `json:"page"`
	Results []MovieSummary `json:"results"`
}
