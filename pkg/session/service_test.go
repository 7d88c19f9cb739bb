package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/pkg/adapters/memory"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
)

// fakeScheduler captures scheduled resumptions without running timers.
type fakeScheduler struct {
	mu       sync.Mutex
	pending  map[string]func(context.Context)
	lastWait time.Duration
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]func(context.Context))}
}

func (f *fakeScheduler) Schedule(_ context.Context, sessionID string, d time.Duration, fn func(context.Context)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[sessionID] = fn
	f.lastWait = d
	return nil
}

func (f *fakeScheduler) Cancel(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[sessionID]
	delete(f.pending, sessionID)
	return ok
}

// fire runs the pending resumption for the session, as the real scheduler
// would once the delay elapses.
func (f *fakeScheduler) fire(ctx context.Context, sessionID string) bool {
	f.mu.Lock()
	fn, ok := f.pending[sessionID]
	delete(f.pending, sessionID)
	f.mu.Unlock()
	if ok {
		fn(ctx)
	}
	return ok
}

type collectingSink struct {
	mu      sync.Mutex
	batches [][]domain.Effect
}

func (c *collectingSink) Deliver(_ context.Context, _ string, effects []domain.Effect) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, effects)
	return nil
}

func delayedGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"go"}})
	addStep(t, g, "m1", domain.MessageConfig{Text: "Starting."})
	addStep(t, g, "d1", domain.DelayConfig{Seconds: 5})
	addStep(t, g, "m2", domain.MessageConfig{Text: "Finished."})
	require.NoError(t, g.AddEdge("t1", "m1", nil))
	require.NoError(t, g.AddEdge("m1", "d1", nil))
	require.NoError(t, g.AddEdge("d1", "m2", nil))
	return g
}

func TestService_DelaySchedulesResumption(t *testing.T) {
	ctx := context.Background()
	g := delayedGraph(t)
	sched := newFakeScheduler()
	sink := &collectingSink{}

	manager := NewManager(memory.NewStore())
	svc := NewService(runtime.NewEngine(), manager,
		WithScheduler(sched),
		WithSink(sink),
	)

	effects, err := svc.HandleInbound(ctx, g, "conv-1", "go", domain.VariableContext{})
	require.NoError(t, err)
	require.Len(t, effects, 2)
	assert.Equal(t, "Starting.", effects[0].Text)
	assert.Equal(t, domain.EffectDelay, effects[1].Type)

	// The suspended state is persisted and a resumption is parked.
	state, err := manager.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingDelay, state.Status)
	assert.Equal(t, "m2", state.ResumeStepID)
	assert.InDelta(t, float64(5*time.Second), float64(sched.lastWait), float64(time.Second))

	require.True(t, sched.fire(ctx, "conv-1"))

	// The resumed walk delivered through the sink and the run is gone.
	sink.mu.Lock()
	require.Len(t, sink.batches, 2)
	assert.Equal(t, "Finished.", sink.batches[1][0].Text)
	sink.mu.Unlock()

	_, err = manager.Load(ctx, "conv-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_AwaitingInputPersistsAcrossMessages(t *testing.T) {
	ctx := context.Background()
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"signup"}})
	addStep(t, g, "q1", domain.DataInputConfig{Prompt: "Your email?", Field: "email"})
	addStep(t, g, "m1", domain.MessageConfig{Text: "All set."})
	require.NoError(t, g.AddEdge("t1", "q1", nil))
	require.NoError(t, g.AddEdge("q1", "m1", nil))

	manager := NewManager(memory.NewStore())
	svc := NewService(runtime.NewEngine(), manager)

	effects, err := svc.HandleInbound(ctx, g, "conv-2", "signup", domain.VariableContext{})
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, domain.EffectPrompt, effects[0].Type)

	// The next inbound message is the answer, not a fresh trigger attempt.
	effects, err = svc.HandleInbound(ctx, g, "conv-2", "jane@acme.test", domain.VariableContext{})
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, "All set.", effects[0].Text)
}

func TestService_NoMatchReturnsError(t *testing.T) {
	manager := NewManager(memory.NewStore())
	svc := NewService(runtime.NewEngine(), manager)

	_, err := svc.HandleInbound(context.Background(), delayedGraph(t), "conv-3", "unrelated", domain.VariableContext{})
	assert.ErrorIs(t, err, domain.ErrNoEntryPoint)
}

func TestService_EndCancelsPendingResumption(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	manager := NewManager(memory.NewStore())
	svc := NewService(runtime.NewEngine(), manager, WithScheduler(sched))

	_, err := svc.HandleInbound(ctx, delayedGraph(t), "conv-4", "go", domain.VariableContext{})
	require.NoError(t, err)

	require.NoError(t, svc.End(ctx, "conv-4"))
	assert.False(t, sched.fire(ctx, "conv-4"), "resumption should have been cancelled")
	_, err = manager.Load(ctx, "conv-4")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

var _ ports.DelayScheduler = (*fakeScheduler)(nil)
var _ ports.EffectSink = (*collectingSink)(nil)
