package testutil

import (
	"context"
	"sync"

	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/tag"
)

// Call is one recorded repository invocation.
type Call struct {
	Op       string
	Tag      tag.Tag
	Location location.BlockLocation
	Moves    []tag.Move
}

// RecordingRepository is an in-memory engine.TagRepository that records
// every call. It mirrors the SQL store's semantics, so engine tests can
// assert both outcomes and the exact calls made (or not made).
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingRepository struct {
	mu    sync.Mutex
	tags  map[location.BlockLocation]tag.Tag
	calls []Call
	err   error
}

// NewRecordingRepository creates an empty repository.
func NewRecordingRepository() *RecordingRepository {
	return &RecordingRepository{tags: make(map[location.BlockLocation]tag.Tag)}
}

// FailWith makes every later call return err. Nil restores normal behavior.
func (r *RecordingRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Seed stores t without recording a call.
func (r *RecordingRepository) Seed(t tag.Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[t.Location] = t
}

// Calls returns a copy of the recorded calls in order.
func (r *RecordingRepository) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Len returns the number of stored tags.
func (r *RecordingRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tags)
}

func (r *RecordingRepository) Put(_ context.Context, t tag.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "put", Tag: t, Location: t.Location})
	if r.err != nil {
		return r.err
	}
	r.tags[t.Location] = t
	return nil
}

func (r *RecordingRepository) FindByLocation(_ context.Context, loc location.BlockLocation) (tag.Tag, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "find", Location: loc})
	if r.err != nil {
		return tag.Tag{}, false, r.err
	}
	t, ok := r.tags[loc]
	return t, ok, nil
}

func (r *RecordingRepository) Delete(_ context.Context, loc location.BlockLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "delete", Location: loc})
	if r.err != nil {
		return r.err
	}
	delete(r.tags, loc)
	return nil
}

func (r *RecordingRepository) UpdateLocations(_ context.Context, moves []tag.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "update_locations", Moves: append([]tag.Move(nil), moves...)})
	if r.err != nil {
		return r.err
	}
	moves, err := tag.Normalize(moves)
	if err != nil {
		return err
	}

	var moved []tag.Tag
	for _, m := range moves {
		if t, ok := r.tags[m.From]; ok {
			moved = append(moved, t.WithLocation(m.To))
			delete(r.tags, m.From)
		}
	}
	for _, t := range moved {
		r.tags[t.Location] = t
	}
	return nil
}
