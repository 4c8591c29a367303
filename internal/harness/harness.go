package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/placebreak/internal/engine"
	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/restrict"
	"github.com/roach88/placebreak/internal/store"
	"github.com/roach88/placebreak/internal/testutil"
)

// Table is the tag table scenarios run against.
const Table = "harness_tag"

// Harness executes one scenario.
type Harness struct {
	engine       *engine.Engine
	tags         *store.TagStore
	clock        *testutil.ManualClock
	restrictions restrict.Properties
	start        time.Time
}

// Run executes scenario against a fresh SQLite file created in dir.
//
// Step failures from the store abort the run with an error. Mismatched
// expectations and failed assertions are collected in the result instead.
func Run(ctx context.Context, scenario *Scenario, dir string) (*Result, error) {
	ttl, err := scenario.TTL()
	if err != nil {
		return nil, err
	}
	props, err := scenario.RestrictionProperties()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.DiscardHandler)
	provider, err := store.NewProvider(store.Options{
		Type:              store.SQLite,
		Table:             Table,
		SQLitePath:        filepath.Join(dir, "harness.db"),
		PoolSize:          4,
		ConnectionTimeout: 5 * time.Second,
	}, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := provider.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect store: %w", err)
	}
	defer provider.Disconnect()

	tags := store.NewTagStore(provider)
	clock := testutil.NewManualClock(time.Time{})
	h := &Harness{
		engine: engine.New(tags, props,
			engine.WithClock(clock),
			engine.WithEphemeralTTL(ttl),
			engine.WithIDGenerator(testutil.NewSequentialIDs()),
			engine.WithLogger(logger),
		),
		tags:         tags,
		clock:        clock,
		restrictions: props,
		start:        clock.Now(),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	for i, a := range scenario.Assertions {
		msg, err := h.evaluate(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("assertion %d (%s): %w", i+1, a.Type, err)
		}
		if msg != "" {
			result.AddError(fmt.Sprintf("assertion %d (%s): %s", i+1, a.Type, msg))
		}
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, n int, step Step, result *Result) error {
	event := TraceEvent{Op: step.Op}

	switch step.Op {
	case OpPut:
		block := step.Block.Block()
		event.Target = block.String()
		event.Detail = fmt.Sprintf("ephemeral=%t", step.Ephemeral)
		if err := h.engine.PutTag(ctx, block, step.Ephemeral); err != nil {
			return err
		}
		outcome, err := h.describe(ctx, block)
		if err != nil {
			return err
		}
		event.Outcome = outcome

	case OpRemove:
		block := step.Block.Block()
		event.Target = block.String()
		if err := h.engine.RemoveTag(ctx, block); err != nil {
			return err
		}
		event.Outcome = "removed"
		if h.restrictions.IsRestricted(block.Material) {
			event.Outcome = "restricted"
		}

	case OpMove:
		blocks := make([]location.Block, len(step.Blocks))
		names := make([]string, len(step.Blocks))
		for i, b := range step.Blocks {
			blocks[i] = b.Block()
			names[i] = blocks[i].String()
		}
		d := location.BlockVector{DX: step.Direction.DX, DY: step.Direction.DY, DZ: step.Direction.DZ}
		event.Target = strings.Join(names, " ")
		event.Detail = fmt.Sprintf("direction=(%d, %d, %d)", d.DX, d.DY, d.DZ)
		if err := h.engine.MoveTags(ctx, blocks, d); err != nil {
			return err
		}
		event.Outcome = fmt.Sprintf("moved %d", len(h.restrictions.Filter(blocks)))

	case OpAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return err
		}
		h.clock.Advance(d)
		event.Detail = d.String()
		event.Outcome = "ok"

	case OpCheck:
		action := engine.ParseActionKind(step.Action)
		event.Detail = "action=" + action.String()
		var block *location.Block
		if step.Block != nil {
			b := step.Block.Block()
			block = &b
			event.Target = b.String()
		}
		exploit, err := h.engine.IsPlaceAndBreakExploit(ctx, action, block)
		if err != nil {
			return err
		}
		event.Outcome = "clean"
		if exploit {
			event.Outcome = "exploit"
		}
		if step.Expect != nil && *step.Expect != exploit {
			result.AddError(fmt.Sprintf("step %d (check): %s at %s: expected exploit=%t, got %t",
				n, action, event.Target, *step.Expect, exploit))
		}
	}

	event.Elapsed = h.clock.Now().Sub(h.start).String()
	result.addEvent(event)
	return nil
}

// describe reports the tag now stored for block after a put.
func (h *Harness) describe(ctx context.Context, block location.Block) (string, error) {
	if h.restrictions.IsRestricted(block.Material) {
		return "restricted", nil
	}
	t, ok, err := h.tags.FindByLocation(ctx, block.Location)
	if err != nil {
		return "", err
	}
	if !ok {
		return "missing", nil
	}
	return "tag " + t.ID.String(), nil
}

// evaluate returns a failure message, or "" when the assertion holds.
func (h *Harness) evaluate(ctx context.Context, a Assertion) (string, error) {
	switch a.Type {
	case AssertTagPresent, AssertTagAbsent:
		loc := a.At.Location()
		t, ok, err := h.tags.FindByLocation(ctx, loc)
		if err != nil {
			return "", err
		}
		if a.Type == AssertTagAbsent {
			if ok {
				return fmt.Sprintf("expected no tag at %s, found %s", loc, t.ID), nil
			}
			return "", nil
		}
		if !ok {
			return fmt.Sprintf("expected a tag at %s, found none", loc), nil
		}
		if a.Ephemeral != nil && t.Ephemeral != *a.Ephemeral {
			return fmt.Sprintf("expected ephemeral=%t at %s, got %t", *a.Ephemeral, loc, t.Ephemeral), nil
		}
		return "", nil

	case AssertTagCount:
		n, err := h.tags.Count(ctx)
		if err != nil {
			return "", err
		}
		if n != a.Count {
			return fmt.Sprintf("expected %d tags, found %d", a.Count, n), nil
		}
		return "", nil
	}
	return "", fmt.Errorf("unknown assertion type %q", a.Type)
}
