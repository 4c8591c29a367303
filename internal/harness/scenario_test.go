package harness

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/placebreak/internal/engine"
	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/restrict"
)

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Steps)
		})
	}
}

func TestParseScenario_Fields(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: fields
description: "all fields"
ephemeral_ttl: 500ms
restrictions:
  mode: whitelist
  materials: [STONE]
steps:
  - op: move
    blocks:
      - { world: nether, x: -1, y: 2, z: 3, material: STONE }
    direction: { dz: -1 }
assertions:
  - type: tag_count
    count: 0
`))
	require.NoError(t, err)

	ttl, err := s.TTL()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, ttl)

	props, err := s.RestrictionProperties()
	require.NoError(t, err)
	assert.Equal(t, restrict.Whitelist, props.Mode())

	step := s.Steps[0]
	assert.Equal(t, location.Block{Location: location.At[int32]("nether", -1, 2, 3), Material: "STONE"}, step.Blocks[0].Block())
	assert.Equal(t, Direction{DZ: -1}, *step.Direction)
}

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: defaults
description: "no ttl, no restrictions"
steps:
  - op: advance
    duration: 1s
`))
	require.NoError(t, err)

	ttl, err := s.TTL()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultEphemeralTTL, ttl)

	props, err := s.RestrictionProperties()
	require.NoError(t, err)
	assert.Equal(t, restrict.Disabled, props.Mode())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\nstep: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "description: y\nsteps: [{op: advance, duration: 1s}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nsteps: [{op: advance, duration: 1s}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: x\ndescription: y\n",
			want: "steps list is required",
		},
		{
			name: "unknown op",
			yaml: "name: x\ndescription: y\nsteps: [{op: explode}]\n",
			want: `unknown op "explode"`,
		},
		{
			name: "put without block",
			yaml: "name: x\ndescription: y\nsteps: [{op: put}]\n",
			want: "block is required",
		},
		{
			name: "move without direction",
			yaml: "name: x\ndescription: y\nsteps: [{op: move, blocks: [{world: w, material: STONE}]}]\n",
			want: "direction is required",
		},
		{
			name: "bad duration",
			yaml: "name: x\ndescription: y\nsteps: [{op: advance, duration: soon}]\n",
			want: "duration",
		},
		{
			name: "check without action",
			yaml: "name: x\ndescription: y\nsteps: [{op: check}]\n",
			want: "action is required",
		},
		{
			name: "negative ttl",
			yaml: "name: x\ndescription: y\nephemeral_ttl: -1s\nsteps: [{op: advance, duration: 1s}]\n",
			want: "ephemeral_ttl must be positive",
		},
		{
			name: "bad restriction mode",
			yaml: "name: x\ndescription: y\nrestrictions: {mode: GREYLIST}\nsteps: [{op: advance, duration: 1s}]\n",
			want: "restrictions",
		},
		{
			name: "assertion without location",
			yaml: "name: x\ndescription: y\nsteps: [{op: advance, duration: 1s}]\nassertions: [{type: tag_present}]\n",
			want: "at is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: y\nsteps: [{op: advance, duration: 1s}]\nassertions: [{type: final_state}]\n",
			want: `unknown assertion type "final_state"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
