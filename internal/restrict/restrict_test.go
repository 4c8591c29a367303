package restrict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/placebreak/internal/location"
)

func TestIsRestricted(t *testing.T) {
	materials := []string{"STONE", "DIRT"}

	tests := []struct {
		name     string
		mode     Mode
		material string
		want     bool
	}{
		{"blacklist listed", Blacklist, "STONE", true},
		{"blacklist unlisted", Blacklist, "WHEAT", false},
		{"whitelist listed", Whitelist, "STONE", false},
		{"whitelist unlisted", Whitelist, "WHEAT", true},
		{"disabled listed", Disabled, "STONE", false},
		{"disabled unlisted", Disabled, "WHEAT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProperties(materials, tt.mode)
			assert.Equal(t, tt.want, p.IsRestricted(tt.material))
		})
	}
}

func TestIsRestricted_ExactCase(t *testing.T) {
	p := NewProperties([]string{"STONE"}, Blacklist)
	assert.False(t, p.IsRestricted("stone"))
}

func TestIsRestricted_NormalizesUnicode(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent
	p := NewProperties([]string{"CAF\u00c9"}, Blacklist)
	assert.True(t, p.IsRestricted("CAFE\u0301"))
}

func TestZeroValueRestrictsNothing(t *testing.T) {
	var p Properties
	assert.Equal(t, Disabled, p.Mode())
	assert.False(t, p.IsRestricted("STONE"))
	assert.Equal(t, Disabled, Default().Mode())
	assert.Empty(t, Default().Materials())
}

func TestFilter(t *testing.T) {
	p := NewProperties([]string{"BEDROCK"}, Blacklist)
	stone := location.Block{Location: location.At[int32]("w", 0, 0, 0), Material: "STONE"}
	bedrock := location.Block{Location: location.At[int32]("w", 1, 0, 0), Material: "BEDROCK"}

	assert.Equal(t, []location.Block{stone}, p.Filter([]location.Block{stone, bedrock}))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" whitelist ")
	require.NoError(t, err)
	assert.Equal(t, Whitelist, m)

	_, err = ParseMode("GREYLIST")
	assert.Error(t, err)
}

func TestMode_YAML(t *testing.T) {
	var doc struct {
		Mode Mode `yaml:"mode"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("mode: blacklist\n"), &doc))
	assert.Equal(t, Blacklist, doc.Mode)

	err := yaml.Unmarshal([]byte("mode: nope\n"), &doc)
	assert.Error(t, err)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "mode: BLACKLIST\n", string(out))
}

func TestMaterials_Sorted(t *testing.T) {
	p := NewProperties([]string{"STONE", "DIRT", "STONE"}, Blacklist)
	assert.Equal(t, []string{"DIRT", "STONE"}, p.Materials())
}
