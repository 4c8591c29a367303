//go:build !purego

package store

// Default build: the cgo SQLite driver.
//
//	CGO_ENABLED=1 go build ./...

import (
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// SQLiteDriverName is the database/sql driver used for SQLite.
	SQLiteDriverName = "sqlite3"

	// BuildMode describes the current build configuration.
	BuildMode = "cgo"
)

func sqliteDSN(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	return sqliteFileURI(path, q)
}
