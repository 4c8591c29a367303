//go:build purego

package store

// Pure Go build, no C compiler required:
//
//	CGO_ENABLED=0 go build -tags purego ./...

import (
	"net/url"

	_ "modernc.org/sqlite"
)

const (
	// SQLiteDriverName is the database/sql driver used for SQLite.
	SQLiteDriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)

func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return sqliteFileURI(path, q)
}
