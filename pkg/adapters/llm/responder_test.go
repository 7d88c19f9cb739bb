package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/mehdry/flowline/pkg/domain"
)

// fakeModel returns a canned reply and records the prompt it was given.
type fakeModel struct {
	reply    string
	err      error
	lastMsgs []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMsgs = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        f.reply,
			GenerationInfo: map[string]any{"TotalTokens": 42},
		}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return f.reply, f.err
}

func TestResponder_Success(t *testing.T) {
	model := &fakeModel{reply: "  Our plans start at $9/month.  "}
	r := NewResponder(model)

	resp, err := r.Respond(context.Background(), domain.AIRequest{
		Message:      "how much does it cost?",
		SystemPrompt: "You are a pricing assistant.",
		Tone:         "friendly",
		ContextData:  "Plans: starter $9, pro $29.",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Our plans start at $9/month.", resp.ResponseText)
	assert.Equal(t, 42, resp.TokenUsage)

	// System prompt carries persona, tone and context data.
	require.Len(t, model.lastMsgs, 2)
	sys := model.lastMsgs[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, sys, "pricing assistant")
	assert.Contains(t, sys, "friendly")
	assert.Contains(t, sys, "starter $9")
}

func TestResponder_RateLimit(t *testing.T) {
	r := NewResponder(&fakeModel{err: errors.New("429 Too Many Requests")})

	resp, err := r.Respond(context.Background(), domain.AIRequest{Message: "hi"})
	require.NoError(t, err, "provider failures are reported in the response")

	assert.False(t, resp.Success)
	assert.True(t, resp.RateLimited)
	assert.NotEmpty(t, resp.Error)
}

func TestResponder_ProviderError(t *testing.T) {
	r := NewResponder(&fakeModel{err: errors.New("connection refused")})

	resp, err := r.Respond(context.Background(), domain.AIRequest{Message: "hi"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.False(t, resp.RateLimited)
	assert.Equal(t, "connection refused", resp.Error)
}

func TestResponder_NoChoices(t *testing.T) {
	r := NewResponder(modelFunc(func() (*llms.ContentResponse, error) {
		return &llms.ContentResponse{}, nil
	}))

	resp, err := r.Respond(context.Background(), domain.AIRequest{Message: "hi"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no choices")
}

type modelFunc func() (*llms.ContentResponse, error)

func (f modelFunc) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return f()
}

func (f modelFunc) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}
