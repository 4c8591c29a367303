package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
)

// HistoryTable records applied migrations, per tag table.
const HistoryTable = "placebreak_schema_history"

const historyDDL = `
	CREATE TABLE IF NOT EXISTS ` + HistoryTable + ` (
		table_name  VARCHAR(128) NOT NULL,
		version     VARCHAR(32)  NOT NULL,
		description VARCHAR(255) NOT NULL,
		applied_at  VARCHAR(40)  NOT NULL,
		PRIMARY KEY (table_name, version)
	)`

// Migration is one versioned schema change.
type Migration struct {
	Version     string
	Description string
	Up          []string

	// Applied, if set, reports whether the change is already in place.
	// When it is, Up is skipped and only the history row is written. This
	// covers DDL that commits implicitly and so can outlive a failed
	// migration transaction.
	Applied func(ctx context.Context, q Querier) (bool, error)
}

type versionedMigration struct {
	Migration
	version *semver.Version
}

func sortMigrations(ms []Migration) ([]versionedMigration, error) {
	out := make([]versionedMigration, 0, len(ms))
	for _, m := range ms {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %s: %w", m.Version, err)
		}
		out = append(out, versionedMigration{Migration: m, version: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].version.LessThan(out[j].version)
	})
	return out, nil
}

// applyMigrations runs every migration not yet recorded in the history
// table, lowest version first.
func applyMigrations(ctx context.Context, db *sql.DB, b Backend, table string, now func() time.Time, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, historyDDL); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}

	applied, err := appliedVersions(ctx, db, table)
	if err != nil {
		return err
	}
	done := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		done[v.String()] = struct{}{}
	}

	migrations, err := sortMigrations(b.Migrations(table))
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := done[m.version.String()]; ok {
			continue
		}
		if err := applyMigration(ctx, db, table, m, now()); err != nil {
			return err
		}
		logger.Info("applied migration",
			"version", m.version.String(),
			"description", m.Description,
			"table", table)
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, table string, m versionedMigration, at time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.version, err)
	}
	defer tx.Rollback()

	present := false
	if m.Applied != nil {
		if present, err = m.Applied(ctx, tx); err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
	}
	if !present {
		for _, stmt := range m.Up {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.version, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+HistoryTable+" (table_name, version, description, applied_at) VALUES (?, ?, ?, ?)",
		table, m.version.String(), m.Description, formatTimestamp(at))
	if err != nil {
		return fmt.Errorf("record migration %s: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.version, err)
	}
	return nil
}

// appliedVersions returns the versions recorded for table, lowest first.
func appliedVersions(ctx context.Context, q Querier, table string) ([]*semver.Version, error) {
	rows, err := q.QueryContext(ctx, "SELECT version FROM "+HistoryTable+" WHERE table_name = ?", table)
	if err != nil {
		return nil, fmt.Errorf("read history table: %w", err)
	}
	defer rows.Close()

	var out []*semver.Version
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded version %q: %w", s, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history table: %w", err)
	}
	sort.Sort(semver.Collection(out))
	return out, nil
}
