package middleware_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/adapters/memory"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/persistence/middleware"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func sampleState() *domain.RunState {
	state := domain.NewRunState("sess-1", "m2")
	state.Status = domain.StatusAwaitingInput
	state.AwaitingField = "email"
	state.Context = map[string]any{
		"email":    "jane@example.com",
		"greeting": "hello",
	}
	return state
}

func TestEncryption_RoundTrip(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(1),
	})(backing)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sess-1", sampleState()))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "m2", loaded.CurrentStepID)
	assert.Equal(t, "jane@example.com", loaded.Context["email"])
}

func TestEncryption_BackingStoreSeesOnlyEnvelope(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(1),
	})(backing)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sess-1", sampleState()))

	raw, err := backing.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, raw.CurrentStepID)
	assert.NotContains(t, raw.Context, "email")
	assert.Contains(t, raw.Context, "__encrypted__")
	// Status stays visible for monitoring.
	assert.Equal(t, domain.StatusAwaitingInput, raw.Status)
}

func TestEncryption_KeyRotation(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(1),
	})(backing)
	require.NoError(t, oldStore.Save(ctx, "sess-1", sampleState()))

	// New active key, old key demoted to fallback.
	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    testKey(2),
		FallbackKeys: [][]byte{testKey(1)},
	})(backing)

	loaded, err := newStore.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", loaded.Context["email"])
}

func TestEncryption_WrongKeyFails(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(1),
	})(backing).Save(ctx, "sess-1", sampleState()))

	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(9),
	})(backing).Load(ctx, "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestEncryption_RejectsPlainState(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, "sess-1", sampleState()))

	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(1),
	})(backing).Load(ctx, "sess-1")
	require.Error(t, err)
}

func TestPII_MasksMatchingKeysInStoreOnly(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewPIIMiddleware([]string{"(?i)email", "(?i)phone"})(backing)

	ctx := context.Background()
	state := sampleState()
	require.NoError(t, store.Save(ctx, "sess-1", state))

	// The engine's in-memory copy is untouched.
	assert.Equal(t, "jane@example.com", state.Context["email"])

	raw, err := backing.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "***", raw.Context["email"])
	assert.Equal(t, "hello", raw.Context["greeting"])
}

func TestPII_MasksNestedMaps(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewPIIMiddleware([]string{"(?i)phone"})(backing)

	ctx := context.Background()
	state := domain.NewRunState("sess-2", "m1")
	state.Context = map[string]any{
		"order": map[string]any{"phone_number": "+15551234567", "id": "1001"},
	}
	require.NoError(t, store.Save(ctx, "sess-2", state))

	raw, err := backing.Load(ctx, "sess-2")
	require.NoError(t, err)
	nested := raw.Context["order"].(map[string]any)
	assert.Equal(t, "***", nested["phone_number"])
	assert.Equal(t, "1001", nested["id"])
}

func TestChaining_PIIThenEncryption(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	store := middleware.NewPIIMiddleware([]string{"(?i)email"})(
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: testKey(1),
		})(backing),
	)

	require.NoError(t, store.Save(ctx, "sess-1", sampleState()))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Context["email"])
	assert.Equal(t, "hello", loaded.Context["greeting"])
}

func TestEncryption_EmptyContextLoadsWritable(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey(1),
	})(backing)

	ctx := context.Background()
	state := domain.NewRunState("sess-empty", "m1")
	state.Context = nil
	require.NoError(t, store.Save(ctx, "sess-empty", state))

	loaded, err := store.Load(ctx, "sess-empty")
	require.NoError(t, err)
	require.NotNil(t, loaded.Context)
	loaded.Context["email"] = "jane@example.com"
	assert.Equal(t, "jane@example.com", loaded.Context["email"])
}
