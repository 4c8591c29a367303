package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActionKind(t *testing.T) {
	tests := []struct {
		name string
		want ActionKind
	}{
		{"BREAK", ActionBreak},
		{"break", ActionBreak},
		{"TNTBREAK", ActionTNTBreak},
		{" Place ", ActionPlace},
		{"KILL", ActionUnsupported},
		{"FISH", ActionUnsupported},
		{"", ActionUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseActionKind(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != ActionUnsupported, got.Supported())
		})
	}
}

func TestActionKind_String(t *testing.T) {
	assert.Equal(t, "BREAK", ActionBreak.String())
	assert.Equal(t, "TNTBREAK", ActionTNTBreak.String())
	assert.Equal(t, "PLACE", ActionPlace.String())
	assert.Equal(t, "UNSUPPORTED", ActionKind(42).String())
}
