package ports

import (
	"context"

	"github.com/mehdry/flowline/pkg/domain"
)

// AIResponder is the AI Response Service contract used by ai_response steps.
// The executor emits whatever the responder returns unchanged; it never
// fabricates content itself.
type AIResponder interface {
	Respond(ctx context.Context, req domain.AIRequest) (domain.AIResponse, error)
}

// AIResponderFunc adapts a function to the AIResponder interface.
type AIResponderFunc func(ctx context.Context, req domain.AIRequest) (domain.AIResponse, error)

func (f AIResponderFunc) Respond(ctx context.Context, req domain.AIRequest) (domain.AIResponse, error) {
	return f(ctx, req)
}
