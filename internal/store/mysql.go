package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// mysqlBackend stores tags on a MySQL or MariaDB server.
type mysqlBackend struct {
	opts Options
}

func (b *mysqlBackend) Type() BackendType  { return MySQL }
func (b *mysqlBackend) DriverName() string { return "mysql" }

func (b *mysqlBackend) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = b.opts.Username
	cfg.Passwd = b.opts.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(b.opts.Host, strconv.Itoa(b.opts.Port))
	cfg.DBName = b.opts.Database
	cfg.Loc = time.UTC
	cfg.Timeout = b.opts.ConnectionTimeout
	if b.opts.TLS {
		cfg.TLSConfig = "true"
	} else {
		cfg.TLSConfig = "false"
	}
	return cfg.FormatDSN()
}

// Prepare is a no-op: the server owns the database.
func (b *mysqlBackend) Prepare(context.Context, *slog.Logger) error {
	return nil
}

func (b *mysqlBackend) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (b *mysqlBackend) Configure(db *sql.DB) {
	// Servers drop idle connections after wait_timeout (8h by default).
	db.SetConnMaxLifetime(30 * time.Minute)
}

func (b *mysqlBackend) Migrations(table string) []Migration {
	t := b.Quote(table)
	return []Migration{
		{
			Version:     "1.0.0",
			Description: "create tag table",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS ` + t + ` (
					tag_id         VARCHAR(36)  NOT NULL,
					init_timestamp VARCHAR(40)  NOT NULL,
					is_ephemeral   TINYINT      NOT NULL,
					world_name     VARCHAR(255) NOT NULL,
					location_x     INT          NOT NULL,
					location_y     INT          NOT NULL,
					location_z     INT          NOT NULL
				) DEFAULT CHARSET = utf8mb4 COLLATE = utf8mb4_bin`,
			},
		},
		{
			Version:     "1.1.0",
			Description: "add location lookup index",
			Up: []string{`
				CREATE INDEX ` + mysqlLocationIndex + `
				ON ` + t + ` (world_name, location_x, location_y, location_z)`,
			},
			Applied: func(ctx context.Context, q Querier) (bool, error) {
				return mysqlIndexExists(ctx, q, table, mysqlLocationIndex)
			},
		},
	}
}

// mysqlLocationIndex is table-scoped in MySQL, so it needs no table prefix.
const mysqlLocationIndex = "idx_location"

// mysqlIndexExists reports whether index exists on table in the current
// database. MySQL has no CREATE INDEX IF NOT EXISTS.
func mysqlIndexExists(ctx context.Context, q Querier, table, index string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`,
		table, index).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("look up index %s on %s: %w", index, table, err)
	}
	return n > 0, nil
}
