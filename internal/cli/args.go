package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/placebreak/internal/location"
)

func parseCoord(name, s string) (int32, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s coordinate %q: %w", name, s, err)
	}
	return int32(n), nil
}

// parseLocation parses <world> <x> <y> <z>.
func parseLocation(args []string) (location.BlockLocation, error) {
	if len(args) != 4 {
		return location.BlockLocation{}, fmt.Errorf("expected <world> <x> <y> <z>, got %d arguments", len(args))
	}
	if strings.TrimSpace(args[0]) == "" {
		return location.BlockLocation{}, fmt.Errorf("world name must not be blank")
	}
	var xyz [3]int32
	for i, axis := range []string{"x", "y", "z"} {
		n, err := parseCoord(axis, args[i+1])
		if err != nil {
			return location.BlockLocation{}, err
		}
		xyz[i] = n
	}
	return location.At(args[0], xyz[0], xyz[1], xyz[2]), nil
}

// parseBlock parses <world> <x> <y> <z> <material>.
func parseBlock(args []string) (location.Block, error) {
	if len(args) != 5 {
		return location.Block{}, fmt.Errorf("expected <world> <x> <y> <z> <material>, got %d arguments", len(args))
	}
	loc, err := parseLocation(args[:4])
	if err != nil {
		return location.Block{}, err
	}
	if strings.TrimSpace(args[4]) == "" {
		return location.Block{}, fmt.Errorf("material must not be blank")
	}
	return location.Block{Location: loc, Material: args[4]}, nil
}

// parseBlockRef parses world,x,y,z,MATERIAL.
func parseBlockRef(ref string) (location.Block, error) {
	parts := strings.Split(ref, ",")
	if len(parts) != 5 {
		return location.Block{}, fmt.Errorf("invalid block %q: want world,x,y,z,MATERIAL", ref)
	}
	return parseBlock(parts)
}

// parseDirection parses dx,dy,dz.
func parseDirection(s string) (location.BlockVector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return location.BlockVector{}, fmt.Errorf("invalid direction %q: want dx,dy,dz", s)
	}
	var d [3]int32
	for i, axis := range []string{"dx", "dy", "dz"} {
		n, err := parseCoord(axis, parts[i])
		if err != nil {
			return location.BlockVector{}, err
		}
		d[i] = n
	}
	return location.BlockVector{DX: d[0], DY: d[1], DZ: d[2]}, nil
}
