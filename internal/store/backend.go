package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// BackendType selects the storage backend.
type BackendType string

const (
	// SQLite is an embedded single-file database.
	SQLite BackendType = "SQLITE"
	// MySQL is a networked MySQL or MariaDB server.
	MySQL BackendType = "MYSQL"
)

// ParseBackendType parses a backend name case-insensitively.
func ParseBackendType(s string) (BackendType, error) {
	switch t := BackendType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SQLite, MySQL:
		return t, nil
	default:
		return "", fmt.Errorf("unknown data source type %q: must be SQLITE or MYSQL", s)
	}
}

// Options configures a Provider.
type Options struct {
	Type  BackendType
	Table string

	// SQLitePath is the database file used by the SQLite backend.
	SQLitePath string

	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	Database string

	PoolSize          int
	ConnectionTimeout time.Duration
}

// Backend is one storage implementation behind the Provider.
type Backend interface {
	// Type returns the backend kind.
	Type() BackendType
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN is the data source name handed to sql.Open.
	DSN() string
	// Prepare runs before the pool is opened.
	Prepare(ctx context.Context, logger *slog.Logger) error
	// Quote quotes an identifier for this dialect.
	Quote(ident string) string
	// Migrations returns the schema migrations for the tag table.
	Migrations(table string) []Migration
	// Configure tunes a freshly opened pool.
	Configure(db *sql.DB)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

// ValidateTable checks that name is usable as an unquoted SQL identifier.
// Only validated names are ever interpolated into statements.
func ValidateTable(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q: must match %s", name, identifierPattern)
	}
	return nil
}

func newBackend(opts Options) (Backend, error) {
	switch opts.Type {
	case SQLite:
		if strings.TrimSpace(opts.SQLitePath) == "" {
			return nil, fmt.Errorf("sqlite backend requires a file path")
		}
		return &sqliteBackend{path: opts.SQLitePath}, nil
	case MySQL:
		return &mysqlBackend{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown data source type %q", opts.Type)
	}
}
