package store

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/tag"
)

const testTable = "patch_place_break_tag"

// testOptions returns SQLite options backed by a fresh temp file.
func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Type:              SQLite,
		Table:             testTable,
		SQLitePath:        filepath.Join(t.TempDir(), "test.db"),
		PoolSize:          4,
		ConnectionTimeout: 5 * time.Second,
	}
}

// createTestProvider connects a provider on a temp SQLite file.
func createTestProvider(t *testing.T, options ...ProviderOption) *Provider {
	t.Helper()
	return connectProvider(t, testOptions(t), options...)
}

func connectProvider(t *testing.T, opts Options, options ...ProviderOption) *Provider {
	t.Helper()
	options = append([]ProviderOption{WithLogger(slog.New(slog.DiscardHandler))}, options...)
	p, err := NewProvider(opts, options...)
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { p.Disconnect() })
	return p
}

// createTestStore creates a tag store on a temp SQLite file.
func createTestStore(t *testing.T, options ...ProviderOption) *TagStore {
	t.Helper()
	return NewTagStore(createTestProvider(t, options...))
}

// rawDB returns the provider's pool for direct queries.
func rawDB(t *testing.T, p *Provider) *sql.DB {
	t.Helper()
	if p.db == nil {
		t.Fatal("provider is not connected")
	}
	return p.db
}

func blockAt(world string, x, y, z int32) location.BlockLocation {
	return location.At(world, x, y, z)
}

func createTestTag(loc location.BlockLocation, created time.Time, ephemeral bool) tag.Tag {
	return tag.New(uuid.Must(uuid.NewV7()), created, ephemeral, loc)
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
