package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "placebreak", cmd.Use)
	assert.Contains(t, cmd.Long, "place-and-break")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"config", "init"},
		{"config", "validate"},
		{"migrate"},
		{"tag", "put"},
		{"tag", "get"},
		{"tag", "rm"},
		{"tag", "move"},
		{"check"},
		{"test"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dirFlag := cmd.PersistentFlags().Lookup("config-dir")
	require.NotNil(t, dirFlag)
	assert.Equal(t, DefaultConfigDir, dirFlag.DefValue)

	ttlFlag := cmd.PersistentFlags().Lookup("ephemeral-ttl")
	require.NotNil(t, ttlFlag)
	assert.Equal(t, (3 * time.Second).String(), ttlFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "yaml", "config", "init", "--config-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidEphemeralTTL(t *testing.T) {
	_, _, err := execute(t, "--ephemeral-ttl", "0s", "config", "init", "--config-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ephemeral TTL")
}

func TestTagMove_RequiresDirection(t *testing.T) {
	_, _, err := execute(t, "tag", "move", "--config-dir", t.TempDir(), "world,0,0,0,STONE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction")
}
