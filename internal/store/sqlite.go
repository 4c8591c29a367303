package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// sqliteBackend stores tags in a single database file.
type sqliteBackend struct {
	path string
}

func (b *sqliteBackend) Type() BackendType  { return SQLite }
func (b *sqliteBackend) DriverName() string { return SQLiteDriverName }
func (b *sqliteBackend) DSN() string        { return sqliteDSN(b.path) }

// sqliteFileURI builds a file: URI for path. The path is percent-encoded so
// '?', '#' and '%' in directory names are not read as URI syntax; SQLite
// decodes it back when opening.
func sqliteFileURI(path string, q url.Values) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}

// Prepare creates the database file and its parent directory if absent.
func (b *sqliteBackend) Prepare(_ context.Context, logger *slog.Logger) error {
	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	f, err := os.OpenFile(b.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		logger.Debug("database file already exists", "path", b.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create database file: %w", err)
	}
	logger.Info("created database file", "path", b.path)
	return f.Close()
}

func (b *sqliteBackend) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (b *sqliteBackend) Configure(*sql.DB) {}

func (b *sqliteBackend) Migrations(table string) []Migration {
	t := b.Quote(table)
	return []Migration{
		{
			Version:     "1.0.0",
			Description: "create tag table",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS ` + t + ` (
					tag_id         TEXT    NOT NULL,
					init_timestamp TEXT    NOT NULL,
					is_ephemeral   INTEGER NOT NULL,
					world_name     TEXT    NOT NULL,
					location_x     INTEGER NOT NULL,
					location_y     INTEGER NOT NULL,
					location_z     INTEGER NOT NULL
				)`,
			},
		},
		{
			Version:     "1.1.0",
			Description: "add location lookup index",
			Up: []string{`
				CREATE INDEX IF NOT EXISTS ` + b.Quote("idx_"+table+"_location") + `
				ON ` + t + ` (world_name, location_x, location_y, location_z)`,
			},
		},
	}
}
