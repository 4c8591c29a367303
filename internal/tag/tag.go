// Package tag defines the persisted marker recording that a block's current
// state comes from a player action.
package tag

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/placebreak/internal/location"
)

// Tag marks a block location as artificially created.
//
// CreatedAt is set once when the tag is created and survives relocation.
// An ephemeral tag only counts while it is younger than the engine's TTL.
type Tag struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Ephemeral bool
	Location  location.BlockLocation
}

// New creates a tag.
func New(id uuid.UUID, createdAt time.Time, ephemeral bool, loc location.BlockLocation) Tag {
	return Tag{
		ID:        id,
		CreatedAt: createdAt,
		Ephemeral: ephemeral,
		Location:  loc,
	}
}

// WithLocation returns a copy of t placed at loc. Identity, creation time
// and the ephemeral flag are preserved.
func (t Tag) WithLocation(loc location.BlockLocation) Tag {
	t.Location = loc
	return t
}

func (t Tag) String() string {
	return fmt.Sprintf("Tag{id=%s, created_at=%s, ephemeral=%t, location=%s}",
		t.ID, t.CreatedAt.Format(time.RFC3339Nano), t.Ephemeral, t.Location)
}

// Move is one relocation pair: the tag at From, if any, goes to To.
type Move struct {
	From location.BlockLocation
	To   location.BlockLocation
}

// Moves builds one Move per distinct location, each shifted by direction.
// Input order is kept; duplicate locations are dropped.
func Moves(locs []location.BlockLocation, direction location.BlockVector) []Move {
	seen := make(map[location.BlockLocation]struct{}, len(locs))
	moves := make([]Move, 0, len(locs))
	for _, loc := range locs {
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		moves = append(moves, Move{From: loc, To: loc.Add(direction)})
	}
	return moves
}

// ErrConflictingMoves is returned for a batch that would relocate one source
// to two places or two sources onto one place.
var ErrConflictingMoves = errors.New("conflicting moves")

// Normalize checks a relocation batch and drops exact duplicate pairs.
// Every From and every To must be distinct across the batch, so applying it
// can never leave two tags at one location or one tag at two.
func Normalize(moves []Move) ([]Move, error) {
	out := make([]Move, 0, len(moves))
	seen := make(map[Move]struct{}, len(moves))
	from := make(map[location.BlockLocation]struct{}, len(moves))
	to := make(map[location.BlockLocation]struct{}, len(moves))

	for _, m := range moves {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}

		if _, dup := from[m.From]; dup {
			return nil, fmt.Errorf("%w: %s moved twice", ErrConflictingMoves, m.From)
		}
		if _, dup := to[m.To]; dup {
			return nil, fmt.Errorf("%w: two tags moved to %s", ErrConflictingMoves, m.To)
		}
		from[m.From] = struct{}{}
		to[m.To] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}
