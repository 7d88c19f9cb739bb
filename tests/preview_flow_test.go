package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/dsl"
	"github.com/mehdry/flowline/pkg/session"
)

func fastPreview(t *testing.T, app *flowline.App, name string, opts ...session.PreviewOption) *session.Preview {
	t.Helper()
	opts = append(opts,
		session.WithLatency(session.NoLatency),
		session.WithSleeper(func(time.Duration) {}),
	)
	p, err := app.Preview(context.Background(), name, opts...)
	require.NoError(t, err)
	return p
}

func outboundTexts(entries []session.TranscriptEntry) []string {
	var texts []string
	for _, e := range entries {
		if e.Direction == session.Outbound {
			texts = append(texts, e.Text)
		}
	}
	return texts
}

// End-to-end journey: keyword trigger, button click, data input, delayed
// follow-up, all inside one preview conversation.
func TestPreview_FullOnboardingJourney(t *testing.T) {
	b := dsl.New("onboarding")
	b.Trigger("t").Keywords("start").To("menu")
	b.Message("menu").
		Text("Welcome {{name}}! What do you need?").
		Button("Create account").
		LinkButton("Read docs", "https://example.com/docs").
		ButtonTo(0, "ask-email")
	b.DataInput("ask-email").Prompt("What is your email?", "email").To("confirm")
	b.Message("confirm").Text("Got it, {{email}}.").To("pause")
	b.Delay("pause").Wait(30)
	b.Message("followup").Text("Still there? Your account is ready.")
	b.Connect("pause", "followup")

	record, err := b.Record()
	require.NoError(t, err)

	app := flowline.New(nil)
	ctx := context.Background()
	require.NoError(t, app.Save(ctx, record))

	contact := &domain.Contact{Name: "Ana"}
	p := fastPreview(t, app, "onboarding", session.WithRecipient("+5511999", contact))

	entries, err := p.SendMessage(ctx, "start please")
	require.NoError(t, err)
	texts := outboundTexts(entries)
	require.Len(t, texts, 1)
	assert.Equal(t, "Welcome Ana! What do you need?", texts[0])

	menu := entries[len(entries)-1].Effect
	require.NotNil(t, menu)
	require.Len(t, menu.Buttons, 2)

	entries, err = p.ClickButton(ctx, menu.StepID, 0)
	require.NoError(t, err)
	texts = outboundTexts(entries)
	require.NotEmpty(t, texts)
	assert.Equal(t, "What is your email?", texts[len(texts)-1])

	entries, err = p.SendMessage(ctx, "ana@example.com")
	require.NoError(t, err)
	texts = outboundTexts(entries)
	require.Contains(t, texts, "Got it, ana@example.com.")
	// The preview plays the delay inline, so the follow-up arrives in the
	// same batch.
	require.Contains(t, texts, "Still there? Your account is ready.")

	transcript := p.Transcript()
	assert.Equal(t, session.Inbound, transcript[0].Direction)
	assert.Equal(t, "start please", transcript[0].Text)
}

func TestPreview_UnmatchedMessageGetsStatusLine(t *testing.T) {
	b := dsl.New("strict")
	b.Trigger("t").ExactMatch("renew").To("ok")
	b.Message("ok").Text("Renewal started.")

	record, err := b.Record()
	require.NoError(t, err)

	app := flowline.New(nil)
	ctx := context.Background()
	require.NoError(t, app.Save(ctx, record))

	// Exact-match triggers do not fire on substrings; the preview keeps
	// the conversation alive with a status line instead of an error.
	p := fastPreview(t, app, "strict")
	entries, err := p.SendMessage(ctx, "please renew my plan")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[1].Effect)
	assert.Equal(t, domain.EffectStatus, entries[1].Effect.Type)
	assert.Equal(t, "No automation matched this message.", entries[1].Text)

	entries, err = p.SendMessage(ctx, "  Renew ")
	require.NoError(t, err)
	assert.Contains(t, outboundTexts(entries), "Renewal started.")
}

func TestPreview_ConditionReportsOutcome(t *testing.T) {
	b := dsl.New("gate")
	b.Trigger("t").Keywords("vip").To("check")
	b.Condition("check").Rule(domain.OpContains, "gold")
	b.Message("yes").Text("Welcome to the lounge.")
	b.Connect("check", "yes")

	record, err := b.Record()
	require.NoError(t, err)

	app := flowline.New(nil)
	ctx := context.Background()
	require.NoError(t, app.Save(ctx, record))

	p := fastPreview(t, app, "gate")
	entries, err := p.SendMessage(ctx, "vip gold member")
	require.NoError(t, err)

	var sawStatus bool
	for _, e := range entries {
		if e.Effect != nil && e.Effect.Type == domain.EffectStatus {
			sawStatus = true
		}
	}
	assert.True(t, sawStatus, "condition steps should surface their outcome as a status line")
	assert.Contains(t, outboundTexts(entries), "Welcome to the lounge.")
}
