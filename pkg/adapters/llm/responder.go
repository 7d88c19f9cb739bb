// Package llm provides the AI Response Service implementation backed by a
// langchaingo model.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mehdry/flowline/pkg/domain"
)

// Responder implements ports.AIResponder on any langchaingo model.
type Responder struct {
	model llms.Model
}

// NewResponder wraps an existing model.
func NewResponder(model llms.Model) *Responder {
	return &Responder{model: model}
}

// NewOpenAI builds a Responder against an OpenAI-compatible endpoint.
// baseURL may be empty for the default endpoint.
func NewOpenAI(apiKey, model, baseURL string) (*Responder, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model: %w", err)
	}
	return &Responder{model: m}, nil
}

// Respond generates the reply for one ai_response step. Provider failures
// come back inside the AIResponse rather than as a hard error, so the
// executor can fall back without aborting the walk.
func (r *Responder) Respond(ctx context.Context, req domain.AIRequest) (domain.AIResponse, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt(req))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(req.Message)},
		},
	}

	var callOpts []llms.CallOption
	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := r.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return domain.AIResponse{
			RateLimited: isRateLimit(err),
			Error:       err.Error(),
		}, nil
	}
	if len(resp.Choices) == 0 {
		return domain.AIResponse{Error: "model returned no choices"}, nil
	}

	choice := resp.Choices[0]
	out := domain.AIResponse{
		Success:      true,
		ResponseText: strings.TrimSpace(choice.Content),
	}
	if usage, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
		out.TokenUsage = usage
	}
	return out, nil
}

// systemPrompt assembles the step's persona: the configured prompt plus
// optional tone and context data.
func systemPrompt(req domain.AIRequest) string {
	var b strings.Builder
	if req.SystemPrompt != "" {
		b.WriteString(req.SystemPrompt)
	} else {
		b.WriteString("You are a helpful assistant replying inside a customer messaging conversation.")
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "\n\nRespond in a %s tone.", req.Tone)
	}
	if req.ContextData != "" {
		fmt.Fprintf(&b, "\n\nUse the following background information when relevant:\n%s", req.ContextData)
	}
	return b.String()
}

func isRateLimit(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429")
}
