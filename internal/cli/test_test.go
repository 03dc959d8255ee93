package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: rename-user
base:
  "4":
    __id: "4"
    __typename: User
    name: Mark
steps:
  - set_value:
      id: "4"
      field: name
      value: Zuck
expect:
  sink:
    "4":
      __id: "4"
      __typename: User
      name: Zuck
`

const failingScenario = `
name: wrong-expectation
steps:
  - create: {id: "4", type: User}
expect:
  sink:
    "4":
      __id: "4"
      __typename: Post
`

func TestTestCommandAllPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rename.yaml", passingScenario)

	out, err := executeCommand("test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ rename-user")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pass.yaml", passingScenario)
	writeFile(t, dir, "fail.yaml", failingScenario)

	out, err := executeCommand("test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong-expectation")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rename.yaml", passingScenario)
	writeFile(t, dir, "fail.yaml", failingScenario)

	out, err := executeCommand("test", dir, "--filter", "rename*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeCommand("test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandMissingDirIsCommandError(t *testing.T) {
	_, err := executeCommand("test", "/no/such/dir")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandMalformedScenarioCountsAsFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: typo\nstepz: []\n")

	out, err := executeCommand("test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Load error")
}

func TestTestCommandJSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rename.yaml", passingScenario)
	writeFile(t, dir, "fail.yaml", failingScenario)

	out, err := executeCommand("--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"code": "E_TEST_FAILED"`)
	assert.NotContains(t, out, "✓")
}
