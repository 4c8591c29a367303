// Package location defines the immutable coordinate types tags are keyed by.
//
// Two numeric domains are supported: int32 block coordinates and float64
// positions. Arithmetic stays in the domain of the location it is applied to,
// so block coordinates wrap on overflow like any fixed-width integer and
// positions follow IEEE-754 addition.
//
// Locations are comparable values. Two locations are equal iff the world name
// matches exactly and every axis matches exactly, which makes them usable as
// map keys with hashing consistent with equality.
package location

import (
	"fmt"
	"math"
)

// Number is the set of coordinate domains a Location may use.
type Number interface {
	~int32 | ~float64
}

// Location is a point in a named world.
type Location[N Number] struct {
	World string
	X     N
	Y     N
	Z     N
}

// Vector is a per-axis offset in the same numeric domain as a Location.
type Vector[N Number] struct {
	DX N
	DY N
	DZ N
}

// BlockLocation addresses a single block.
type BlockLocation = Location[int32]

// BlockVector is the direction a block moves in, usually a unit step.
type BlockVector = Vector[int32]

// Position is a free position inside a world.
type Position = Location[float64]

// Direction is a free offset.
type Direction = Vector[float64]

// At creates a Location.
func At[N Number](world string, x, y, z N) Location[N] {
	return Location[N]{World: world, X: x, Y: y, Z: z}
}

// Add returns the location translated by v. The receiver is not modified.
func (l Location[N]) Add(v Vector[N]) Location[N] {
	return Location[N]{
		World: l.World,
		X:     l.X + v.DX,
		Y:     l.Y + v.DY,
		Z:     l.Z + v.DZ,
	}
}

// String renders the location as world(x, y, z).
func (l Location[N]) String() string {
	return fmt.Sprintf("%s(%v, %v, %v)", l.World, l.X, l.Y, l.Z)
}

// BlockOf returns the location of the block containing p.
// Axes outside the int32 range saturate at the range bounds; NaN maps to 0.
func BlockOf(p Position) BlockLocation {
	return BlockLocation{
		World: p.World,
		X:     floorToInt32(p.X),
		Y:     floorToInt32(p.Y),
		Z:     floorToInt32(p.Z),
	}
}

func floorToInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(math.Floor(f))
}

// Block is a block of a given material at a location.
type Block struct {
	Location BlockLocation
	Material string
}

// String renders the block as MATERIAL@world(x, y, z).
func (b Block) String() string {
	return b.Material + "@" + b.Location.String()
}
