package ports

import (
	"context"

	"github.com/mehdry/flowline/pkg/domain"
)

// HTTPCaller is the external collaborator invoked by live api_call and
// webhook steps. Preview runs never touch it; the executor emits a simulated
// acknowledgement instead.
type HTTPCaller interface {
	Call(ctx context.Context, req domain.HTTPCallRequest) (domain.HTTPCallResponse, error)
}
