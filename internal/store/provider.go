package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/roach88/placebreak/internal/metric"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector. Nil disables metrics.
func WithMetrics(m *metric.Metrics) ProviderOption {
	return func(p *Provider) {
		p.metrics = m
	}
}

// Provider owns the bounded connection pool for one backend.
//
// Lifecycle: NewProvider -> Connect -> (WithTx | WithConn)* -> Disconnect.
// Disconnect waits for in-flight work to release its connection.
type Provider struct {
	opts    Options
	backend Backend
	logger  *slog.Logger
	metrics *metric.Metrics

	mu sync.RWMutex
	db *sql.DB
}

// NewProvider validates opts and selects the backend. No connection is made
// until Connect.
func NewProvider(opts Options, options ...ProviderOption) (*Provider, error) {
	if err := ValidateTable(opts.Table); err != nil {
		return nil, err
	}
	if opts.PoolSize < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", opts.PoolSize)
	}
	if opts.ConnectionTimeout <= 0 {
		return nil, fmt.Errorf("connection timeout must be positive, got %s", opts.ConnectionTimeout)
	}

	backend, err := newBackend(opts)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		opts:    opts,
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Backend returns the selected backend.
func (p *Provider) Backend() Backend {
	return p.backend
}

// Table returns the configured tag table name.
func (p *Provider) Table() string {
	return p.opts.Table
}

// Connect prepares the backend, opens the pool and applies migrations.
// On any failure the pool is closed and the provider stays unconnected.
func (p *Provider) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return newError(KindConnectionLifecycle, "connect", fmt.Errorf("already connected"))
	}

	if err := p.backend.Prepare(ctx, p.logger); err != nil {
		return newError(KindConnectionLifecycle, "prepare", err)
	}

	db, err := sql.Open(p.backend.DriverName(), p.backend.DSN())
	if err != nil {
		return newError(KindConnectionLifecycle, "open", err)
	}
	db.SetMaxOpenConns(p.opts.PoolSize)
	db.SetMaxIdleConns(p.opts.PoolSize)
	p.backend.Configure(db)

	pingCtx, cancel := context.WithTimeout(ctx, p.opts.ConnectionTimeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		db.Close()
		return newError(KindConnectionLifecycle, "ping", err)
	}

	if err := applyMigrations(ctx, db, p.backend, p.opts.Table, time.Now, p.logger); err != nil {
		db.Close()
		return newError(KindSchemaCreation, "migrate", err)
	}

	p.db = db
	p.logger.Info("connection pool opened",
		"backend", p.backend.Type(),
		"table", p.opts.Table,
		"pool_size", p.opts.PoolSize,
		"mode", BuildMode)
	return nil
}

// Disconnect closes the pool. Calling it on a provider that was never
// connected, or was already disconnected, only logs a warning.
func (p *Provider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		p.logger.Warn("connection pool was never opened or is already closed")
		return nil
	}

	err := p.db.Close()
	p.db = nil
	if err != nil {
		return newError(KindConnectionLifecycle, "close", err)
	}
	p.logger.Info("connection pool closed", "backend", p.backend.Type())
	return nil
}

// Connected reports whether the pool is open.
func (p *Provider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db != nil
}

// acquire takes a connection from the pool, waiting at most the configured
// connection timeout. Callers must hold p.mu for reading.
func (p *Provider) acquire(ctx context.Context, op string) (*sql.Conn, error) {
	if p.db == nil {
		return nil, newError(KindNotSetUp, op, errNotSetUp)
	}

	actx, cancel := context.WithTimeout(ctx, p.opts.ConnectionTimeout)
	defer cancel()

	conn, err := p.db.Conn(actx)
	if err != nil {
		return nil, newError(KindConnectionLifecycle, op, fmt.Errorf("acquire connection: %w", err))
	}
	return conn, nil
}

// WithConn runs fn on a pooled connection outside any transaction.
// Errors returned by fn are passed through unchanged.
func (p *Provider) WithConn(ctx context.Context, op string, fn func(Querier) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, err := p.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(conn)
}

// WithTx runs fn inside a transaction. The transaction commits only if fn
// returns nil; any error or panic rolls it back.
func (p *Provider) WithTx(ctx context.Context, op string, fn func(Querier) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, err := p.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return newError(KindOperationFailure, op, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return newError(KindOperationFailure, op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, or nil if
// none has been applied.
func (p *Provider) SchemaVersion(ctx context.Context) (*semver.Version, error) {
	var version *semver.Version
	err := p.WithConn(ctx, "schema version", func(q Querier) error {
		applied, err := appliedVersions(ctx, q, p.opts.Table)
		if err != nil {
			return newError(KindOperationFailure, "schema version", err)
		}
		if len(applied) > 0 {
			version = applied[len(applied)-1]
		}
		return nil
	})
	return version, err
}
