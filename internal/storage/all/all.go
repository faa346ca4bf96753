// Package all registers every storage backend with the factory.
// Entry points blank-import this package; config selects which kind to use.
package all

import (
	_ "tmdbetl/internal/storage/mssql"
	_ "tmdbetl/internal/storage/postgres"
	_ "tmdbetl/internal/storage/sqlite"
)
