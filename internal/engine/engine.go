package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/metric"
	"github.com/roach88/placebreak/internal/restrict"
	"github.com/roach88/placebreak/internal/tag"
)

// DefaultEphemeralTTL is how long an ephemeral tag counts as evidence of a
// player-placed block.
const DefaultEphemeralTTL = 3 * time.Second

// TagRepository persists tags. Implemented by *store.TagStore.
type TagRepository interface {
	Put(ctx context.Context, t tag.Tag) error
	FindByLocation(ctx context.Context, loc location.BlockLocation) (tag.Tag, bool, error)
	Delete(ctx context.Context, loc location.BlockLocation) error
	UpdateLocations(ctx context.Context, moves []tag.Move) error
}

// Engine decides whether a block action is a place-and-break exploit and
// keeps the tag store in step with world events.
//
// Thread-safety: all methods are safe for concurrent use provided the
// repository is. Restricted blocks never reach the repository.
type Engine struct {
	repo         TagRepository
	restrictions restrict.Properties
	clock        Clock
	ttl          time.Duration
	ids          IDGenerator
	logger       *slog.Logger
	metrics      *metric.Metrics
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithClock sets the time source. Default: SystemClock.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithEphemeralTTL sets how long ephemeral tags stay effective.
//
// Default: 3s (DefaultEphemeralTTL)
func WithEphemeralTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

// WithIDGenerator sets the tag id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records exploit verdicts. Nil disables metrics.
func WithMetrics(m *metric.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over repo with the given restriction policy.
func New(repo TagRepository, restrictions restrict.Properties, opts ...EngineOption) *Engine {
	e := &Engine{
		repo:         repo,
		restrictions: restrictions,
		clock:        SystemClock{},
		ttl:          DefaultEphemeralTTL,
		ids:          UUIDv7Generator{},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EphemeralTTL returns the configured ephemeral tag lifetime.
func (e *Engine) EphemeralTTL() time.Duration {
	return e.ttl
}

// Restrictions returns the restriction policy.
func (e *Engine) Restrictions() restrict.Properties {
	return e.restrictions
}

// PutTag tags the block's location with a fresh tag stamped now, replacing
// any tag already there. Restricted blocks are ignored.
func (e *Engine) PutTag(ctx context.Context, block location.Block, ephemeral bool) error {
	if e.restrictions.IsRestricted(block.Material) {
		e.logger.Debug("skipping restricted block", "op", "put", "block", block.String())
		return nil
	}

	t := tag.New(e.ids.Generate(), e.clock.Now(), ephemeral, block.Location)
	if err := e.repo.Put(ctx, t); err != nil {
		return fmt.Errorf("put tag at %s: %w", block.Location, err)
	}

	e.logger.Debug("tag put",
		"id", t.ID.String(),
		"location", block.Location.String(),
		"ephemeral", ephemeral)
	return nil
}

// RemoveTag deletes the tag at the block's location. Restricted blocks are
// ignored.
func (e *Engine) RemoveTag(ctx context.Context, block location.Block) error {
	if e.restrictions.IsRestricted(block.Material) {
		e.logger.Debug("skipping restricted block", "op", "remove", "block", block.String())
		return nil
	}

	if err := e.repo.Delete(ctx, block.Location); err != nil {
		return fmt.Errorf("remove tag at %s: %w", block.Location, err)
	}
	return nil
}

// MoveTags shifts the tags of the given blocks by direction, as when a
// piston pushes them. Restricted blocks are dropped first; if none remain
// the repository is not called.
func (e *Engine) MoveTags(ctx context.Context, blocks []location.Block, direction location.BlockVector) error {
	kept := e.restrictions.Filter(blocks)
	if len(kept) == 0 {
		return nil
	}

	locs := make([]location.BlockLocation, len(kept))
	for i, b := range kept {
		locs[i] = b.Location
	}
	moves := tag.Moves(locs, direction)

	if err := e.repo.UpdateLocations(ctx, moves); err != nil {
		return fmt.Errorf("move %d tags: %w", len(moves), err)
	}

	e.logger.Debug("tags moved",
		"count", len(moves),
		"direction", fmt.Sprintf("(%d, %d, %d)", direction.DX, direction.DY, direction.DZ))
	return nil
}

// IsPlaceAndBreakExploit reports whether rewarding action on block would pay
// out for a block a player placed.
//
// The verdict is false for a nil block, an unsupported action, a restricted
// material, or an untagged location. A persistent tag is always an exploit.
// An ephemeral tag is one only while now - createdAt < TTL.
func (e *Engine) IsPlaceAndBreakExploit(ctx context.Context, action ActionKind, block *location.Block) (bool, error) {
	if block == nil || !action.Supported() {
		return false, nil
	}
	if e.restrictions.IsRestricted(block.Material) {
		return false, nil
	}

	t, ok, err := e.repo.FindByLocation(ctx, block.Location)
	if err != nil {
		return false, fmt.Errorf("check %s at %s: %w", action, block.Location, err)
	}

	exploit := ok && e.effective(t)
	e.metrics.ObserveExploitCheck(exploit)

	if exploit {
		e.logger.Debug("place-and-break exploit detected",
			"action", action.String(),
			"block", block.String(),
			"tag_id", t.ID.String())
	}
	return exploit, nil
}

// effective reports whether t still marks its block as player-placed.
func (e *Engine) effective(t tag.Tag) bool {
	if !t.Ephemeral {
		return true
	}
	return e.clock.Now().Sub(t.CreatedAt) < e.ttl
}
