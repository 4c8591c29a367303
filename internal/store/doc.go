// Package store provides SQL-backed durable storage for block tags.
//
// A Provider owns one bounded connection pool for the configured backend:
//   - SQLite: an embedded database file, created on first connect
//   - MySQL: a networked MySQL or MariaDB server
//
// The SQLite driver is chosen at build time. The default build uses
// github.com/mattn/go-sqlite3 (cgo); building with -tags purego switches to
// modernc.org/sqlite.
//
// # Invariants
//
// One tag per location: the tag table has no uniqueness constraint, so
// every write deletes the location before inserting, inside a transaction.
// Reads that find duplicate rows log a warning and return the newest row
// (ORDER BY init_timestamp DESC, tag_id ASC).
//
// Batch relocation is atomic: UpdateLocations reads every source, clears
// sources and destinations of the moves that carry a tag, then inserts,
// all in one transaction. Batches that move one source twice or two sources
// onto one destination are refused.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - immediate transactions: writers take the lock at BEGIN
//
// Schema changes are versioned migrations ordered by semantic version and
// recorded per tag table in placebreak_schema_history.
package store
