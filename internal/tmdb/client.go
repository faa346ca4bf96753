// Package tmdb is a minimal read-only client for the TMDB v3 API.
//
// It covers exactly the three endpoints the pipeline needs: the top_rated
// listing, per-movie details, and per-movie credits. There is no retry,
// no backoff, and no rate-limit handling; failures surface as one of two
// named error kinds and the caller decides whether to abort or skip.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Error kinds, assertable with errors.Is.
var (
	// ErrListingUnavailable means a top_rated page request failed. The whole
	// listing is abandoned: callers get no partial page results.
	ErrListingUnavailable = errors.New("tmdb: top rated listing unavailable")

	// ErrMovieUnavailable means the detail or credits request for one movie
	// failed. Callers should skip the movie, not abort the run.
	ErrMovieUnavailable = errors.New("tmdb: movie unavailable")
)

// Options configures a Client.
type Options struct {
	// APIKey is sent as the api_key query parameter on every request.
	APIKey string

	// BaseURL is the API root, e.g. "https://api.themoviedb.org/3".
	BaseURL string

	// Language is sent as the language query parameter, e.g. "en-US".
	Language string

	// Pages is the number of successive top_rated pages to request.
	Pages int

	// MaxMovies truncates the concatenated listing.
	MaxMovies int

	// Timeout bounds each individual request. Zero means no per-request
	// deadline beyond the transport's own.
	Timeout time.Duration
}

// Client issues blocking, sequential requests against the TMDB API.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a Client. If client is nil, http.DefaultClient is used.
func NewClient(client *http.Client, opts Options) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{client: client, opts: opts}
}

// TopRated fetches opts.Pages successive pages of /movie/top_rated and
// concatenates their results, truncated to opts.MaxMovies.
//
// Fail-fast contract: if any page request fails (transport error or non-200
// status), the whole listing is abandoned and TopRated returns a nil slice
// and an error wrapping ErrListingUnavailable. There are no partial results.
func (c *Client) TopRated(ctx context.Context) ([]MovieSummary, error) {
	var movies []MovieSummary

	for page := 1; page <= c.opts.Pages; page++ {
		var body topRatedPage
		err := c.getJSON(ctx, "/movie/top_rated", url.Values{"page": {strconv.Itoa(page)}}, &body)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrListingUnavailable, page, err)
		}
		movies = append(movies, body.Results...)
	}

	if len(movies) > c.opts.MaxMovies {
		movies = movies[:c.opts.MaxMovies]
	}
	return movies, nil
}

// MovieDetails fetches /movie/{id} and /movie/{id}/credits with two
// independent requests.
//
// If either request fails, both results are reported unavailable: the
// returned error wraps ErrMovieUnavailable and the record is unusable.
// Callers treat this as "skip this movie".
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (MovieRecord, error) {
	var rec MovieRecord

	id := strconv.FormatInt(movieID, 10)
	if err := c.getJSON(ctx, "/movie/"+id, nil, &rec.Details); err != nil {
		return MovieRecord{}, fmt.Errorf("%w: id %d details: %v", ErrMovieUnavailable, movieID, err)
	}
	if err := c.getJSON(ctx, "/movie/"+id+"/credits", nil, &rec.Credits); err != nil {
		return MovieRecord{}, fmt.Errorf("%w: id %d credits: %v", ErrMovieUnavailable, movieID, err)
	}
	return rec, nil
}

// getJSON performs one GET and decodes the 200 response body into out.
//
// On non-200 responses it returns an error that includes the status code and
// up to 4KB of the response body for debugging.
func (c *Client) getJSON(ctx context.Context, path string, extra url.Values, out any) error {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	q := url.Values{
		"api_key":  {c.opts.APIKey},
		"language": {c.opts.Language},
	}
	for k, vs := range extra {
		q[k] = vs
	}

	u := strings.TrimRight(c.opts.BaseURL, "/") + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
