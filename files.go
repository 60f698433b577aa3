package credentials

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsFor returns the goose migrations for dialect (sqlite, postgres
// or mysql) rooted at the dialect directory.
func MigrationsFor(dialect string) (fs.FS, error) {
	switch dialect {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("%w: unsupported dialect %q", ErrInvalidConfig, dialect)
	}
	return fs.Sub(migrationsFS, "data/sql/migrations/"+dialect)
}
