package ports

import (
	"context"

	"github.com/mehdry/flowline/pkg/domain"
)

// EffectSink receives the ordered effects of a walk. The preview appends
// them to a transcript; a live deployment hands them to a transport.
type EffectSink interface {
	Deliver(ctx context.Context, sessionID string, effects []domain.Effect) error
}

// EffectSinkFunc adapts a function to the EffectSink interface.
type EffectSinkFunc func(ctx context.Context, sessionID string, effects []domain.Effect) error

func (f EffectSinkFunc) Deliver(ctx context.Context, sessionID string, effects []domain.Effect) error {
	return f(ctx, sessionID, effects)
}
