// Package restrict decides which block materials are exempt from tagging.
package restrict

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/placebreak/internal/location"
)

// Mode selects how the configured material list is interpreted.
type Mode string

const (
	// Blacklist restricts only the listed materials.
	Blacklist Mode = "BLACKLIST"
	// Whitelist restricts every material except the listed ones.
	Whitelist Mode = "WHITELIST"
	// Disabled restricts nothing.
	Disabled Mode = "DISABLED"
)

// Modes lists the valid modes.
var Modes = []Mode{Blacklist, Whitelist, Disabled}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(Modes, m) {
		return "", fmt.Errorf("invalid restriction mode %q: must be one of %v", s, Modes)
	}
	return m, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so modes can be read
// from YAML.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

// Properties is the restricted-blocks policy. The zero value restricts
// nothing. Safe for concurrent use once built.
type Properties struct {
	materials map[string]struct{}
	mode      Mode
}

// NewProperties builds a policy. Material names are NFC-normalized.
func NewProperties(materials []string, mode Mode) Properties {
	set := make(map[string]struct{}, len(materials))
	for _, m := range materials {
		set[norm.NFC.String(m)] = struct{}{}
	}
	return Properties{materials: set, mode: mode}
}

// Default is the policy used when none is configured.
func Default() Properties {
	return NewProperties(nil, Disabled)
}

// Mode returns the restriction mode.
func (p Properties) Mode() Mode {
	if p.mode == "" {
		return Disabled
	}
	return p.mode
}

// Materials returns the configured materials, sorted.
func (p Properties) Materials() []string {
	out := make([]string, 0, len(p.materials))
	for m := range p.materials {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// IsRestricted reports whether blocks of the given material are exempt from
// tagging and exploit detection.
func (p Properties) IsRestricted(material string) bool {
	switch p.Mode() {
	case Blacklist:
		return p.contains(material)
	case Whitelist:
		return !p.contains(material)
	default:
		return false
	}
}

func (p Properties) contains(material string) bool {
	_, ok := p.materials[norm.NFC.String(material)]
	return ok
}

// Filter returns the blocks that are not restricted, in input order.
func (p Properties) Filter(blocks []location.Block) []location.Block {
	out := make([]location.Block, 0, len(blocks))
	for _, b := range blocks {
		if !p.IsRestricted(b.Material) {
			out = append(out, b)
		}
	}
	return out
}
