package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/placebreak/internal/engine"
	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/restrict"
)

// Step ops.
const (
	OpPut     = "put"
	OpRemove  = "remove"
	OpMove    = "move"
	OpAdvance = "advance"
	OpCheck   = "check"
)

// Assertion types.
const (
	AssertTagPresent = "tag_present"
	AssertTagAbsent  = "tag_absent"
	AssertTagCount   = "tag_count"
)

// Scenario is a sequence of block events with expected verdicts.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// EphemeralTTL is a Go duration. Empty means engine.DefaultEphemeralTTL.
	EphemeralTTL string `yaml:"ephemeral_ttl,omitempty"`

	Restrictions *Restrictions `yaml:"restrictions,omitempty"`
	Steps        []Step        `yaml:"steps"`
	Assertions   []Assertion   `yaml:"assertions,omitempty"`
}

// Restrictions mirrors restrictedBlocks.yml.
type Restrictions struct {
	Mode      string   `yaml:"mode"`
	Materials []string `yaml:"materials"`
}

// Loc is a block location in scenario files.
type Loc struct {
	World string `yaml:"world" json:"world"`
	X     int32  `yaml:"x" json:"x"`
	Y     int32  `yaml:"y" json:"y"`
	Z     int32  `yaml:"z" json:"z"`
}

// Location converts l.
func (l Loc) Location() location.BlockLocation {
	return location.At(l.World, l.X, l.Y, l.Z)
}

// BlockSpec is a block in scenario files.
type BlockSpec struct {
	World    string `yaml:"world"`
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
	Z        int32  `yaml:"z"`
	Material string `yaml:"material"`
}

// Block converts b.
func (b BlockSpec) Block() location.Block {
	return location.Block{
		Location: location.At(b.World, b.X, b.Y, b.Z),
		Material: b.Material,
	}
}

// Direction is a move offset. Omitted axes are zero.
type Direction struct {
	DX int32 `yaml:"dx"`
	DY int32 `yaml:"dy"`
	DZ int32 `yaml:"dz"`
}

// Step is one event.
type Step struct {
	Op string `yaml:"op"`

	// Block is used by put, remove and check.
	Block *BlockSpec `yaml:"block,omitempty"`

	// Ephemeral is used by put.
	Ephemeral bool `yaml:"ephemeral,omitempty"`

	// Blocks and Direction are used by move.
	Blocks    []BlockSpec `yaml:"blocks,omitempty"`
	Direction *Direction  `yaml:"direction,omitempty"`

	// Duration is used by advance.
	Duration string `yaml:"duration,omitempty"`

	// Action and Expect are used by check. A nil Expect records the
	// verdict without asserting it.
	Action string `yaml:"action,omitempty"`
	Expect *bool  `yaml:"expect,omitempty"`
}

// Assertion checks the store after the last step.
type Assertion struct {
	Type string `yaml:"type"`

	// At is used by tag_present and tag_absent.
	At *Loc `yaml:"at,omitempty"`

	// Ephemeral optionally narrows tag_present.
	Ephemeral *bool `yaml:"ephemeral,omitempty"`

	// Count is used by tag_count.
	Count int `yaml:"count,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// TTL returns the scenario's ephemeral TTL.
func (s *Scenario) TTL() (time.Duration, error) {
	if s.EphemeralTTL == "" {
		return engine.DefaultEphemeralTTL, nil
	}
	ttl, err := time.ParseDuration(s.EphemeralTTL)
	if err != nil {
		return 0, fmt.Errorf("ephemeral_ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("ephemeral_ttl must be positive, got %s", ttl)
	}
	return ttl, nil
}

// RestrictionProperties builds the restriction policy. No restrictions
// section means restrict.Default().
func (s *Scenario) RestrictionProperties() (restrict.Properties, error) {
	if s.Restrictions == nil {
		return restrict.Default(), nil
	}
	mode, err := restrict.ParseMode(s.Restrictions.Mode)
	if err != nil {
		return restrict.Properties{}, fmt.Errorf("restrictions: %w", err)
	}
	return restrict.NewProperties(s.Restrictions.Materials, mode), nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if _, err := s.TTL(); err != nil {
		return err
	}
	if _, err := s.RestrictionProperties(); err != nil {
		return err
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i+1, a.Type, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpPut, OpRemove:
		if step.Block == nil {
			return fmt.Errorf("block is required")
		}
	case OpMove:
		if len(step.Blocks) == 0 {
			return fmt.Errorf("blocks list is required and must be non-empty")
		}
		if step.Direction == nil {
			return fmt.Errorf("direction is required")
		}
	case OpAdvance:
		if _, err := time.ParseDuration(step.Duration); err != nil {
			return fmt.Errorf("duration: %w", err)
		}
	case OpCheck:
		if step.Action == "" {
			return fmt.Errorf("action is required")
		}
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTagPresent, AssertTagAbsent:
		if a.At == nil {
			return fmt.Errorf("at is required")
		}
	case AssertTagCount:
		if a.Count < 0 {
			return fmt.Errorf("count must not be negative")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
