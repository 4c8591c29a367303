package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/tag"
)

// timestampLayout is fixed width so stored timestamps sort lexically.
// Values are always written in UTC, which renders the zone as "Z".
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// TagStore persists tags in the provider's tag table.
//
// At most one tag is kept per location. The table carries no uniqueness
// constraint, so every write deletes before inserting in one transaction.
type TagStore struct {
	provider *Provider
	logger   *slog.Logger

	insertSQL string
	deleteSQL string
	selectSQL string
	countSQL  string
}

// NewTagStore creates a tag store on p. The provider must be connected
// before any operation is called.
func NewTagStore(p *Provider) *TagStore {
	t := p.backend.Quote(p.opts.Table)
	where := " WHERE world_name = ? AND location_x = ? AND location_y = ? AND location_z = ?"
	return &TagStore{
		provider: p,
		logger:   p.logger,
		insertSQL: "INSERT INTO " + t +
			" (tag_id, init_timestamp, is_ephemeral, world_name, location_x, location_y, location_z)" +
			" VALUES (?, ?, ?, ?, ?, ?, ?)",
		deleteSQL: "DELETE FROM " + t + where,
		selectSQL: "SELECT tag_id, init_timestamp, is_ephemeral FROM " + t + where +
			" ORDER BY init_timestamp DESC, tag_id ASC",
		countSQL: "SELECT COUNT(*) FROM " + t,
	}
}

// Put stores t at its location, replacing any tag already there.
func (s *TagStore) Put(ctx context.Context, t tag.Tag) (err error) {
	defer s.observe("put", time.Now(), &err)

	return s.provider.WithTx(ctx, "put", func(q Querier) error {
		if err := s.deleteAt(ctx, q, t.Location); err != nil {
			return newError(KindOperationFailure, "put", err)
		}
		if err := s.insert(ctx, q, t); err != nil {
			return newError(KindOperationFailure, "put", err)
		}
		return nil
	})
}

// FindByLocation returns the tag at loc. The bool is false when there is
// none.
func (s *TagStore) FindByLocation(ctx context.Context, loc location.BlockLocation) (found tag.Tag, ok bool, err error) {
	defer s.observe("find", time.Now(), &err)

	err = s.provider.WithConn(ctx, "find", func(q Querier) error {
		var ferr error
		found, ok, ferr = s.findIn(ctx, q, loc)
		if ferr != nil {
			return newError(KindOperationFailure, "find", ferr)
		}
		return nil
	})
	return found, ok, err
}

// Delete removes the tag at loc. Deleting an absent tag is not an error.
func (s *TagStore) Delete(ctx context.Context, loc location.BlockLocation) (err error) {
	defer s.observe("delete", time.Now(), &err)

	return s.provider.WithTx(ctx, "delete", func(q Querier) error {
		if err := s.deleteAt(ctx, q, loc); err != nil {
			return newError(KindOperationFailure, "delete", err)
		}
		return nil
	})
}

// UpdateLocations relocates tags in one transaction.
//
// All sources are read before anything is written, so chained moves such as
// a->b, b->c see the state from before the batch. For each move whose From
// holds a tag, both From and To are cleared and the tag is reinserted at To
// with its identity, creation time and ephemeral flag unchanged. Moves with
// no tag at From leave both locations untouched.
//
// A batch that names one From twice with different destinations, or two
// moves sharing a To, fails with tag.ErrConflictingMoves and changes nothing.
func (s *TagStore) UpdateLocations(ctx context.Context, moves []tag.Move) (err error) {
	if len(moves) == 0 {
		return nil
	}
	defer s.observe("update_locations", time.Now(), &err)

	moves, err = tag.Normalize(moves)
	if err != nil {
		return newError(KindOperationFailure, "update locations", err)
	}

	type relocation struct {
		from location.BlockLocation
		tag  tag.Tag
	}
	var relocated []relocation

	err = s.provider.WithTx(ctx, "update locations", func(q Querier) error {
		relocated = relocated[:0]
		for _, m := range moves {
			t, ok, err := s.findIn(ctx, q, m.From)
			if err != nil {
				return newError(KindOperationFailure, "update locations", err)
			}
			if ok {
				relocated = append(relocated, relocation{from: m.From, tag: t.WithLocation(m.To)})
			}
		}

		for _, r := range relocated {
			if err := s.deleteAt(ctx, q, r.from); err != nil {
				return newError(KindOperationFailure, "update locations", err)
			}
			if err := s.deleteAt(ctx, q, r.tag.Location); err != nil {
				return newError(KindOperationFailure, "update locations", err)
			}
		}

		for _, r := range relocated {
			if err := s.insert(ctx, q, r.tag); err != nil {
				return newError(KindOperationFailure, "update locations", err)
			}
		}
		return nil
	})
	if err == nil {
		s.provider.metrics.AddRelocated(len(relocated))
	}
	return err
}

// Count returns the number of stored tag rows.
func (s *TagStore) Count(ctx context.Context) (n int, err error) {
	defer s.observe("count", time.Now(), &err)

	err = s.provider.WithConn(ctx, "count", func(q Querier) error {
		if err := q.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
			return newError(KindOperationFailure, "count", err)
		}
		return nil
	})
	return n, err
}

func (s *TagStore) observe(op string, start time.Time, err *error) {
	s.provider.metrics.ObserveStore(op, start, *err)
}

func (s *TagStore) insert(ctx context.Context, q Querier, t tag.Tag) error {
	ephemeral := 0
	if t.Ephemeral {
		ephemeral = 1
	}
	_, err := q.ExecContext(ctx, s.insertSQL,
		t.ID.String(),
		formatTimestamp(t.CreatedAt),
		ephemeral,
		t.Location.World,
		t.Location.X,
		t.Location.Y,
		t.Location.Z,
	)
	if err != nil {
		return fmt.Errorf("insert tag at %s: %w", t.Location, err)
	}
	return nil
}

func (s *TagStore) deleteAt(ctx context.Context, q Querier, loc location.BlockLocation) error {
	_, err := q.ExecContext(ctx, s.deleteSQL, loc.World, loc.X, loc.Y, loc.Z)
	if err != nil {
		return fmt.Errorf("delete tag at %s: %w", loc, err)
	}
	return nil
}

func (s *TagStore) findIn(ctx context.Context, q Querier, loc location.BlockLocation) (tag.Tag, bool, error) {
	rows, err := q.QueryContext(ctx, s.selectSQL, loc.World, loc.X, loc.Y, loc.Z)
	if err != nil {
		return tag.Tag{}, false, fmt.Errorf("query tag at %s: %w", loc, err)
	}
	defer rows.Close()

	var (
		first tag.Tag
		n     int
	)
	for rows.Next() {
		n++
		if n > 1 {
			continue
		}
		first, err = scanTag(rows, loc)
		if err != nil {
			return tag.Tag{}, false, err
		}
	}
	if err := rows.Err(); err != nil {
		return tag.Tag{}, false, fmt.Errorf("query tag at %s: %w", loc, err)
	}

	if n > 1 {
		s.logger.Warn("multiple tags found at one location, using the newest",
			"location", loc.String(),
			"rows", n,
			"tag_id", first.ID.String())
	}
	return first, n > 0, nil
}

func scanTag(rows *sql.Rows, loc location.BlockLocation) (tag.Tag, error) {
	var (
		rawID     string
		rawTime   string
		ephemeral int64
	)
	if err := rows.Scan(&rawID, &rawTime, &ephemeral); err != nil {
		return tag.Tag{}, fmt.Errorf("scan tag at %s: %w", loc, err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid tag id %q at %s: %w", rawID, loc, err)
	}
	created, err := parseTimestamp(rawTime)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid timestamp %q at %s: %w", rawTime, loc, err)
	}
	return tag.New(id, created, ephemeral != 0, loc), nil
}
