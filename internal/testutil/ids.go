package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs generates predictable UUIDv7-shaped ids:
// 00000000-0000-7000-8000-000000000001, ...-000000000002, and so on.
//
// Implements engine.IDGenerator. Golden traces stay byte-identical across
// runs because ids no longer depend on wall time or randomness.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu sync.Mutex
	n  uint64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return SequentialID(g.n)
}

// SequentialID returns the n-th id produced by SequentialIDs.
func SequentialID(n uint64) uuid.UUID {
	var id uuid.UUID
	id[6] = 0x70 // version 7
	// RFC 4122 variant bits lead the counter
	binary.BigEndian.PutUint64(id[8:], n|0x8000000000000000)
	return id
}
