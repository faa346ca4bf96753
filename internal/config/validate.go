package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding, addressed by a JSON-ish path into the
// config so the user can find the offending field.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// Validate checks a Config and returns all findings. The config is runnable
// when no issue has SeverityError.
//
// Edge cases:
//   - An empty API key is an error: TMDB rejects unauthenticated requests.
//   - A malformed language tag is a warning, not an error; TMDB falls back
//     to its own default for unknown tags.
func Validate(c Config) []Issue {
	var issues []Issue

	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(c.API.Key) == "" {
		errf("api.key", "missing API key: set api.key or TMDB_API_KEY")
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errf("api.base_url", "not an absolute URL: %q", c.API.BaseURL)
	} else if u.Scheme != "https" {
		warnf("api.base_url", "scheme %q sends the API key in cleartext", u.Scheme)
	}

	if _, err := language.Parse(c.API.Language); err != nil {
		warnf("api.language", "unrecognized language tag %q: %v", c.API.Language, err)
	}

	if c.API.Pages <= 0 {
		errf("api.pages", "must be > 0, got %d", c.API.Pages)
	}
	if c.API.MaxMovies <= 0 {
		errf("api.max_movies", "must be > 0, got %d", c.API.MaxMovies)
	}
	if c.API.CastLimit <= 0 {
		errf("api.cast_limit", "must be > 0, got %d", c.API.CastLimit)
	}

	if c.Storage.Kind == "" {
		errf("storage.kind", "must be set (e.g. sqlite)")
	}
	if c.Storage.DSN == "" {
		errf("storage.dsn", "must be set")
	}

	return issues
}

// HasError reports whether any issue is fatal.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
