package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: put_check
description: "a persistent tag makes a break an exploit"
steps:
  - op: put
    block: { world: world, x: 1, y: 2, z: 3, material: STONE }
  - op: check
    action: BREAK
    block: { world: world, x: 1, y: 2, z: 3, material: STONE }
    expect: true
`

const failingScenario = `name: wrong_expectation
description: "an untagged block is never an exploit"
steps:
  - op: check
    action: BREAK
    block: { world: world, x: 1, y: 2, z: 3, material: STONE }
    expect: true
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "put_check.yaml", passingScenario)

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ put_check")

	golden := filepath.Join(dir, "golden", "put_check.golden")
	require.FileExists(t, golden)

	out, _, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, _, err = execute(t, "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "put_check.yaml", passingScenario)
	writeScenario(t, dir, "wrong_expectation.yml", failingScenario)

	out, _, err := execute(t, "--format", "json", "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "put_check.yaml", passingScenario)
	writeScenario(t, dir, "wrong_expectation.yaml", failingScenario)

	out, _, err := execute(t, "test", dir, "--filter", "put_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	out, _, err := execute(t, "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	out, _, err := execute(t, "test", "../harness/testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ end_to_end")
	assert.Contains(t, out, "✓ place_push_break")
	assert.Contains(t, out, "✓ restricted_blocks")
	assert.Contains(t, out, "✓ ttl_boundary")
}
