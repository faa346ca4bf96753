package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer serves canned top_rated pages and per-movie endpoints.
// failPage, when > 0, makes that listing page return 500.
// fail404 marks movie ids whose detail endpoint returns 404.
func newTestServer(t *testing.T, perPage int, failPage int, fail404 map[int64]bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			http.Error(w, `{"status_message":"missing key"}`, http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/movie/top_rated":
			page := r.URL.Query().Get("page")
			if page == fmt.Sprint(failPage) {
				http.Error(w, `{"status_message":"boom"}`, http.StatusInternalServerError)
				return
			}
			var sb strings.Builder
			sb.WriteString(`{"page":` + page + `,"results":[`)
			for i := 0; i < perPage; i++ {
				if i > 0 {
					sb.WriteString(",")
				}
				fmt.Fprintf(&sb, `{"id":%s%02d,"title":"Movie %s-%d"}`, page, i, page, i)
			}
			sb.WriteString(`]}`)
			fmt.Fprint(w, sb.String())

		case strings.HasSuffix(r.URL.Path, "/credits"):
			fmt.Fprint(w, `{"cast":[{"id":7,"name":"Actor","character":"Hero"}],"crew":[{"id":9,"name":"Dir","job":"Director"}]}`)

		case strings.HasPrefix(r.URL.Path, "/movie/"):
			id := strings.TrimPrefix(r.URL.Path, "/movie/")
			if fail404[atoi64(id)] {
				http.Error(w, `{"status_message":"not found"}`, http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"id":%s,"title":"T","overview":"O","release_date":"2002-06-15","vote_average":8.5,"genres":[{"id":18,"name":"Drama"}]}`, id)

		default:
			http.NotFound(w, r)
		}
	}))
}

func atoi64(s string) int64 {
	var n int64
	fmt.Sscan(s, &n)
	return n
}

func newTestClient(srv *httptest.Server, pages, maxMovies int) *Client {
	return NewClient(srv.Client(), Options{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Language:  "en-US",
		Pages:     pages,
		MaxMovies: maxMovies,
	})
}

func TestTopRated_TruncatesToMaxMovies(t *testing.T) {
	srv := newTestServer(t, 20, 0, nil)
	defer srv.Close()

	got, err := newTestClient(srv, 3, 50).TopRated(context.Background())
	if err != nil {
		t.Fatalf("TopRated: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("len=%d, want 50", len(got))
	}
	// Page order is preserved: first entry is page 1, position 0.
	if got[0].ID != 100 {
		t.Errorf("first id=%d, want 100", got[0].ID)
	}
}

func TestTopRated_FewerThanMax(t *testing.T) {
	srv := newTestServer(t, 5, 0, nil)
	defer srv.Close()

	got, err := newTestClient(srv, 3, 50).TopRated(context.Background())
	if err != nil {
		t.Fatalf("TopRated: %v", err)
	}
	if len(got) != 15 {
		t.Fatalf("len=%d, want 15", len(got))
	}
}

func TestTopRated_AnyPageFailureAbandonsListing(t *testing.T) {
	for failPage := 1; failPage <= 3; failPage++ {
		t.Run(fmt.Sprintf("page_%d", failPage), func(t *testing.T) {
			srv := newTestServer(t, 20, failPage, nil)
			defer srv.Close()

			got, err := newTestClient(srv, 3, 50).TopRated(context.Background())
			if !errors.Is(err, ErrListingUnavailable) {
				t.Fatalf("err=%v, want ErrListingUnavailable", err)
			}
			if got != nil {
				t.Fatalf("got %d summaries, want none on failure", len(got))
			}
		})
	}
}

func TestMovieDetails_CombinesBothEndpoints(t *testing.T) {
	srv := newTestServer(t, 20, 0, nil)
	defer srv.Close()

	rec, err := newTestClient(srv, 3, 50).MovieDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieDetails: %v", err)
	}
	if rec.Details.ID != 603 || rec.Details.ReleaseDate != "2002-06-15" {
		t.Errorf("details = %+v", rec.Details)
	}
	if len(rec.Credits.Cast) != 1 || rec.Credits.Cast[0].Character != "Hero" {
		t.Errorf("cast = %+v", rec.Credits.Cast)
	}
	if len(rec.Credits.Crew) != 1 || rec.Credits.Crew[0].Job != "Director" {
		t.Errorf("crew = %+v", rec.Credits.Crew)
	}
}

func TestMovieDetails_404CollapsesToUnavailable(t *testing.T) {
	srv := newTestServer(t, 20, 0, map[int64]bool{42: true})
	defer srv.Close()

	_, err := newTestClient(srv, 3, 50).MovieDetails(context.Background(), 42)
	if !errors.Is(err, ErrMovieUnavailable) {
		t.Fatalf("err=%v, want ErrMovieUnavailable", err)
	}
}

func TestMovieDetails_TransportError(t *testing.T) {
	srv := newTestServer(t, 20, 0, nil)
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv, 3, 50).MovieDetails(context.Background(), 1)
	if !errors.Is(err, ErrMovieUnavailable) {
		t.Fatalf("err=%v, want ErrMovieUnavailable", err)
	}
}
