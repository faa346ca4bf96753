// Package config defines the pipeline configuration for the movie ETL.
//
// Configuration is loaded from a JSON file and may be overridden by flags
// and environment variables at the entry points. The API credential is never
// hard-coded: it resolves flag -> config file -> TMDB_API_KEY.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Defaults applied by Load when the config file leaves a field empty.
const (
	DefaultBaseURL   = "https://api.themoviedb.org/3"
	DefaultLanguage  = "en-US"
	DefaultPages     = 3
	DefaultMaxMovies = 50
	DefaultCastLimit = 10
)

// Config describes one ETL run end to end: where to fetch from, how much to
// fetch, and which store to load into.
type Config struct {
	// API holds the TMDB endpoint settings.
	API APIConfig `json:"api"`

	// Storage selects the relational backend and its DSN.
	Storage StorageConfig `json:"storage"`

	// Job names the run for metrics tagging. Optional.
	Job string `json:"job,omitempty"`
}

// APIConfig holds everything needed to talk to the TMDB v3 API.
type APIConfig struct {
	// Key is the static API credential. Leave empty in committed config
	// files and set TMDB_API_KEY instead.
	Key string `json:"key,omitempty"`

	// BaseURL is the API root, e.g. "https://api.themoviedb.org/3".
	BaseURL string `json:"base_url,omitempty"`

	// Language is the BCP 47 tag passed on every request, e.g. "en-US".
	Language string `json:"language,omitempty"`

	// Pages is how many listing pages to request from /movie/top_rated.
	Pages int `json:"pages,omitempty"`

	// MaxMovies caps the concatenated listing (truncation, not sampling).
	MaxMovies int `json:"max_movies,omitempty"`

	// CastLimit caps credited cast per movie in billing order.
	CastLimit int `json:"cast_limit,omitempty"`
}

// StorageConfig selects a registered storage backend.
type StorageConfig struct {
	// Kind is a registered backend kind: "sqlite", "postgres", "mssql".
	Kind string `json:"kind,omitempty"`

	// DSN is backend-specific. For sqlite it is the database file path.
	// Environment variables in the DSN are expanded at run time.
	DSN string `json:"dsn,omitempty"`
}

// Load reads a JSON config file, applies defaults, and resolves the API key
// from the environment when the file leaves it empty.
//
// Load does not validate; call Validate on the result and inspect the issues.
func Load(path string) (Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills unset fields with package defaults and pulls the API
// key from TMDB_API_KEY when the config left it empty.
func (c *Config) ApplyDefaults() {
	if c.API.Key == "" {
		c.API.Key = os.Getenv("TMDB_API_KEY")
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Language == "" {
		c.API.Language = DefaultLanguage
	}
	if c.API.Pages <= 0 {
		c.API.Pages = DefaultPages
	}
	if c.API.MaxMovies <= 0 {
		c.API.MaxMovies = DefaultMaxMovies
	}
	if c.API.CastLimit <= 0 {
		c.API.CastLimit = DefaultCastLimit
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = "sqlite"
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = "movies.db"
	}
}
