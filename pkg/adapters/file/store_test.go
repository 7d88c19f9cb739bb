package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/adapters/file"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	state := domain.NewRunState("sess-1", "m2")
	state.Status = domain.StatusWaitingDelay
	state.ResumeStepID = "m3"
	require.NoError(t, file.New(dir).Save(ctx, "sess-1", state))

	// A fresh store over the same directory sees the session, like a
	// process restart would.
	loaded, err := file.New(dir).Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingDelay, loaded.Status)
	assert.Equal(t, "m3", loaded.ResumeStepID)
}

func TestFileStore_FilesAreReadableJSON(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, file.New(dir).Save(ctx, "sess-1", domain.NewRunState("sess-1", "m1")))

	data, err := os.ReadFile(filepath.Join(dir, "sess-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"current_step_id": "m1"`)
}

func TestFileStore_RejectsPathEscapes(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	err := store.Save(ctx, "../evil", domain.NewRunState("x", "m1"))
	require.Error(t, err)

	_, err = store.Load(ctx, "nested/evil")
	require.Error(t, err)
}

func TestFileStore_EmptyDirListsNothing(t *testing.T) {
	sessions, err := file.New(filepath.Join(t.TempDir(), "does-not-exist")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
