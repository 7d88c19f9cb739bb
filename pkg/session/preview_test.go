package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/pkg/domain"
)

func addStep(t *testing.T, g *domain.Graph, id string, cfg domain.StepConfig) {
	t.Helper()
	require.NoError(t, g.AddStep(&domain.Step{ID: id, Type: cfg.Kind(), Config: cfg}))
}

// recordingSleep captures every pause the preview would have performed.
type recordingSleep struct {
	pauses []time.Duration
}

func (r *recordingSleep) sleep(d time.Duration) {
	r.pauses = append(r.pauses, d)
}

func newTestPreview(t *testing.T, g *domain.Graph, opts ...PreviewOption) *Preview {
	t.Helper()
	opts = append([]PreviewOption{
		WithLatency(NoLatency),
		WithSleeper(func(time.Duration) {}),
	}, opts...)
	return NewPreview(runtime.NewEngine(), g, opts...)
}

func greetingGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"hello"}})
	addStep(t, g, "m1", domain.MessageConfig{Text: "Welcome!"})
	require.NoError(t, g.AddEdge("t1", "m1", nil))
	return g
}

func TestPreview_SendMessageAppendsTranscript(t *testing.T) {
	p := newTestPreview(t, greetingGraph(t))

	entries, err := p.SendMessage(context.Background(), "hello there")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, Inbound, entries[0].Direction)
	assert.Equal(t, "hello there", entries[0].Text)
	assert.Equal(t, Outbound, entries[1].Direction)
	assert.Equal(t, "Welcome!", entries[1].Text)
	require.NotNil(t, entries[1].Effect)
	assert.Equal(t, domain.EffectMessage, entries[1].Effect.Type)
	assert.False(t, entries[0].Timestamp.IsZero())

	assert.Equal(t, entries, p.Transcript())
}

func TestPreview_NoMatchYieldsStatusLine(t *testing.T) {
	p := newTestPreview(t, greetingGraph(t))

	entries, err := p.SendMessage(context.Background(), "goodbye")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, Outbound, entries[1].Direction)
	require.NotNil(t, entries[1].Effect)
	assert.Equal(t, domain.EffectStatus, entries[1].Effect.Type)
	assert.Contains(t, entries[1].Text, "No automation matched")
}

func TestPreview_DelayPlaysOutInline(t *testing.T) {
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"start"}})
	addStep(t, g, "m1", domain.MessageConfig{Text: "Hang on..."})
	addStep(t, g, "d1", domain.DelayConfig{Seconds: 3})
	addStep(t, g, "m2", domain.MessageConfig{Text: "Done waiting."})
	require.NoError(t, g.AddEdge("t1", "m1", nil))
	require.NoError(t, g.AddEdge("m1", "d1", nil))
	require.NoError(t, g.AddEdge("d1", "m2", nil))

	rec := &recordingSleep{}
	p := NewPreview(runtime.NewEngine(), g,
		WithLatency(NoLatency),
		WithSleeper(rec.sleep),
	)

	entries, err := p.SendMessage(context.Background(), "start")
	require.NoError(t, err)

	var texts []string
	for _, e := range entries {
		if e.Direction == Outbound {
			texts = append(texts, e.Text)
		}
	}
	require.Len(t, texts, 3)
	assert.Equal(t, "Hang on...", texts[0])
	assert.Contains(t, texts[1], "Waiting 3 seconds")
	assert.Equal(t, "Done waiting.", texts[2])

	// One pause per effect (zero latency) plus the delay pause itself.
	require.NotEmpty(t, rec.pauses)
	var longest time.Duration
	for _, d := range rec.pauses {
		if d > longest {
			longest = d
		}
	}
	assert.Greater(t, longest, 2*time.Second)
}

func TestPreview_DataInputRoutesNextMessageAsAnswer(t *testing.T) {
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"signup"}})
	addStep(t, g, "q1", domain.DataInputConfig{Prompt: "What is your email?", Field: "email"})
	addStep(t, g, "m1", domain.MessageConfig{Text: "Thanks, you are on the list."})
	require.NoError(t, g.AddEdge("t1", "q1", nil))
	require.NoError(t, g.AddEdge("q1", "m1", nil))

	p := newTestPreview(t, g)
	ctx := context.Background()

	entries, err := p.SendMessage(ctx, "signup")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[1].Effect)
	assert.Equal(t, domain.EffectPrompt, entries[1].Effect.Type)
	assert.Equal(t, "email", entries[1].Effect.Field)

	// The answer continues the suspended run rather than re-matching.
	entries, err = p.SendMessage(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Thanks, you are on the list.", entries[1].Text)
}

func buttonGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"menu"}})
	addStep(t, g, "m1", domain.MessageConfig{
		Text: "How can we help?",
		Buttons: []domain.Button{
			{Text: "Pricing", Type: domain.ButtonAutomation},
			{Text: "Support", Type: domain.ButtonAutomation},
			{Text: "Visit site", Type: domain.ButtonLink, URL: "https://example.com"},
		},
	})
	addStep(t, g, "pricing", domain.MessageConfig{Text: "Plans start at $9."})
	addStep(t, g, "support", domain.MessageConfig{Text: "Our team will reach out."})
	require.NoError(t, g.AddEdge("t1", "m1", nil))
	b0, b1 := 0, 1
	require.NoError(t, g.AddEdge("m1", "pricing", &b0))
	require.NoError(t, g.AddEdge("m1", "support", &b1))
	return g
}

func TestPreview_ClickButtonFollowsOwnEdgeOnly(t *testing.T) {
	p := newTestPreview(t, buttonGraph(t))
	ctx := context.Background()

	_, err := p.SendMessage(ctx, "menu")
	require.NoError(t, err)

	entries, err := p.ClickButton(ctx, "m1", 0)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, Inbound, entries[0].Direction)
	assert.Equal(t, "Pricing", entries[0].Text)
	assert.Equal(t, "Plans start at $9.", entries[1].Text)

	// The second button's edge stays untouched.
	for _, e := range entries {
		assert.NotEqual(t, "Our team will reach out.", e.Text)
	}

	entries, err = p.ClickButton(ctx, "m1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Our team will reach out.", entries[1].Text)
}

func TestPreview_ClickButtonWithoutEdgeReplaysAsMessage(t *testing.T) {
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"menu", "pricing"}})
	addStep(t, g, "m1", domain.MessageConfig{
		Text:    "Pick one:",
		Buttons: []domain.Button{{Text: "pricing", Type: domain.ButtonAutomation}},
	})
	require.NoError(t, g.AddEdge("t1", "m1", nil))

	p := newTestPreview(t, g)
	ctx := context.Background()

	_, err := p.SendMessage(ctx, "menu")
	require.NoError(t, err)

	// No edge hangs off the button, so the label re-enters the matcher and
	// hits the "pricing" keyword again.
	entries, err := p.ClickButton(ctx, "m1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Inbound, entries[0].Direction)
	assert.Equal(t, "pricing", entries[0].Text)
	assert.Equal(t, "Pick one:", entries[1].Text)
}

func TestPreview_ClickLinkButtonIsInert(t *testing.T) {
	p := newTestPreview(t, buttonGraph(t))
	ctx := context.Background()

	_, err := p.SendMessage(ctx, "menu")
	require.NoError(t, err)

	entries, err := p.ClickButton(ctx, "m1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Effect)
	assert.Equal(t, domain.EffectStatus, entries[0].Effect.Type)
	assert.Contains(t, entries[0].Text, "link")
}

func TestPreview_ClickButtonValidation(t *testing.T) {
	p := newTestPreview(t, buttonGraph(t))
	ctx := context.Background()

	_, err := p.ClickButton(ctx, "missing", 0)
	assert.ErrorIs(t, err, domain.ErrStepNotFound)

	_, err = p.ClickButton(ctx, "m1", 9)
	assert.Error(t, err)
}

func TestPreview_SnapshotIsolatesBuilderEdits(t *testing.T) {
	g := greetingGraph(t)
	p := newTestPreview(t, g)

	// Mutating the builder graph after the preview starts has no effect on
	// the running simulation.
	require.NoError(t, g.RemoveStep("m1"))

	entries, err := p.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Welcome!", entries[1].Text)
}

func TestPreview_VariablesResolveFromRecipient(t *testing.T) {
	g := domain.NewGraph()
	addStep(t, g, "t1", domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: []string{"hi"}})
	addStep(t, g, "m1", domain.MessageConfig{Text: "Hi {{first_name}}!"})
	require.NoError(t, g.AddEdge("t1", "m1", nil))

	p := newTestPreview(t, g, WithRecipient("+15551234567", &domain.Contact{Name: "Jane Doe"}))

	entries, err := p.SendMessage(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Hi Jane!", entries[1].Text)
}
