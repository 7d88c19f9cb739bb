package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/adapters/memory"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/schema"
)

func TestAutomations_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAutomations()

	record := &schema.Automation{
		Name:        "welcome-flow",
		TriggerType: string(domain.TriggerKeyword),
		Status:      schema.StatusActive,
		Workflow: []schema.StepRecord{
			{ID: "t1", Type: domain.StepTypeTrigger, Config: map[string]any{"type": "keyword", "keywords": []any{"hi"}}},
			{ID: "m1", Type: domain.StepTypeMessage, Config: map[string]any{"text": "Hello!"}},
		},
		Connections: []schema.EdgeRecord{{From: "t1", To: "m1"}},
	}
	require.NoError(t, store.Put(ctx, record))

	loaded, err := store.Get(ctx, "welcome-flow")
	require.NoError(t, err)
	assert.Equal(t, record.Name, loaded.Name)
	require.Len(t, loaded.Workflow, 2)
	assert.Equal(t, "Hello!", loaded.Workflow[1].Config["text"])

	// Mutating the loaded record must not leak back into the store.
	loaded.Workflow[1].Config["text"] = "tampered"
	again, err := store.Get(ctx, "welcome-flow")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", again.Workflow[1].Config["text"])
}

func TestAutomations_GetMissing(t *testing.T) {
	store := memory.NewAutomations()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrAutomationNotFound)
}

func TestAutomations_PutRequiresName(t *testing.T) {
	store := memory.NewAutomations()
	assert.Error(t, store.Put(context.Background(), &schema.Automation{}))
}

func TestAutomations_ListIsSorted(t *testing.T) {
	ctx := context.Background()
	store, err := memory.NewFromAutomations(
		&schema.Automation{Name: "zeta"},
		&schema.Automation{Name: "alpha"},
	)
	require.NoError(t, err)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.NoError(t, store.Delete(ctx, "zeta"))
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names)
}
