package cli

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/placebreak/internal/config"
	"github.com/roach88/placebreak/internal/engine"
	"github.com/roach88/placebreak/internal/metric"
	"github.com/roach88/placebreak/internal/store"
)

// newLogger writes text logs to w. Debug records need --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config directory and applies flag overrides.
func loadConfig(opts *RootOptions, f *OutputFormatter, logger *slog.Logger) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigDir, logger)
	if err != nil {
		return config.Config{}, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	cfg.EphemeralTTL = opts.EphemeralTTL
	f.VerboseLog("Loaded %s", cfg)
	return cfg, nil
}

// session is a connected tag store with an engine on top.
type session struct {
	cfg      config.Config
	provider *store.Provider
	tags     *store.TagStore
	engine   *engine.Engine
	registry *prometheus.Registry
	logger   *slog.Logger
}

// openSession loads the config, connects the store and runs migrations.
// Callers must Close the session.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*session, error) {
	logger := newLogger(f.GetErrWriter(), opts.Verbose)

	cfg, err := loadConfig(opts, f, logger)
	if err != nil {
		return nil, err
	}
	storeOpts, err := cfg.StoreOptions()
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid data source", err)
	}
	props, err := cfg.Restrictions()
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid restricted blocks", err)
	}

	registry := prometheus.NewRegistry()
	metrics := metric.New()
	if err := metrics.Register(registry); err != nil {
		return nil, err
	}

	provider, err := store.NewProvider(storeOpts, store.WithLogger(logger), store.WithMetrics(metrics))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid data source", err)
	}
	if err := provider.Connect(ctx); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConnect, "failed to set up data source", err)
	}

	tags := store.NewTagStore(provider)
	return &session{
		cfg:      cfg,
		provider: provider,
		tags:     tags,
		engine: engine.New(tags, props,
			engine.WithEphemeralTTL(cfg.EphemeralTTL),
			engine.WithLogger(logger),
			engine.WithMetrics(metrics),
		),
		registry: registry,
		logger:   logger,
	}, nil
}

// Close reports collected counters in verbose mode and closes the pool.
func (s *session) Close(f *OutputFormatter) {
	s.reportMetrics(f)
	if err := s.provider.Disconnect(); err != nil {
		s.logger.Warn("failed to close data source", "error", err)
	}
}

func (s *session) reportMetrics(f *OutputFormatter) {
	if !f.Verbose {
		return
	}
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Warn("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			c := m.GetCounter()
			if c == nil {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			f.VerboseLog("metric %s{%s} %g", mf.GetName(), strings.Join(labels, ","), c.GetValue())
		}
	}
}
