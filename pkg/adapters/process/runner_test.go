package process_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/adapters/process"
	"github.com/mehdry/flowline/pkg/ports"
)

func TestRunner_UnregisteredActionFails(t *testing.T) {
	r := process.NewRunner()

	_, err := r.Run(context.Background(), "deploy", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRunner_ExecutesRegisteredCommand(t *testing.T) {
	r := process.NewRunner()
	r.Register("greet", "echo", "hello from action")

	out, err := r.Run(context.Background(), "greet", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello from action", out)
}

func TestRunner_ParamsExposedAsEnvironment(t *testing.T) {
	r := process.NewRunner()
	r.Register("show", "sh", "-c", "printf %s \"$FLOWLINE_PARAM_ORDER_ID\"")

	out, err := r.Run(context.Background(), "show", map[string]any{"order_id": 1001})
	require.NoError(t, err)
	assert.Equal(t, "1001", out)
}

func TestRunner_CommandFailureIncludesStderr(t *testing.T) {
	r := process.NewRunner()
	r.Register("boom", "sh", "-c", "echo broken >&2; exit 3")

	_, err := r.Run(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoadActions_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
actions:
  - name: notify
    command: echo
    args: ["sent"]
    description: Pretend to notify someone
  - command: ignored-without-name
`), 0o644))

	actions, err := process.LoadActions(path)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "echo", actions["notify"].Command)
}

func TestLoadActions_MissingFileMeansEmpty(t *testing.T) {
	actions, err := process.LoadActions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, actions)
}

var _ ports.ActionRunner = (*process.Runner)(nil)
