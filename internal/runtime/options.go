package runtime

import (
	"log/slog"

	"github.com/mehdry/flowline/internal/logging"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
	"github.com/mehdry/flowline/pkg/vars"
)

// DefaultMaxSteps bounds one walk. A graph assembled in the builder rarely
// exceeds a few dozen steps; anything past this is a wiring mistake.
const DefaultMaxSteps = 64

// EngineOption configures the executor.
type EngineOption func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps overrides the per-run step budget.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithResponder injects the AI Response Service used by ai_response steps.
func WithResponder(r ports.AIResponder) EngineOption {
	return func(e *Engine) {
		e.responder = r
	}
}

// WithHTTPCaller injects the live collaborator for api_call/webhook steps
// and switches those steps from simulated acknowledgements to real calls.
func WithHTTPCaller(c ports.HTTPCaller) EngineOption {
	return func(e *Engine) {
		e.caller = c
		e.live = true
	}
}

// WithActionRunner injects the executor for custom_action steps. Without
// one, those steps render a placeholder status line.
func WithActionRunner(r ports.ActionRunner) EngineOption {
	return func(e *Engine) {
		e.actions = r
	}
}

// WithResolver overrides the variable resolver (e.g. to pin the clock).
func WithResolver(r *vars.Resolver) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLegacyEntryFallback restores the historical behavior for graphs with
// no trigger step: every step that declares no trigger keywords becomes a
// default entry point. Off by default; imported legacy flows only.
func WithLegacyEntryFallback() EngineOption {
	return func(e *Engine) {
		e.legacyEntry = true
	}
}

func defaultEngine() *Engine {
	return &Engine{
		resolver: vars.New(),
		maxSteps: DefaultMaxSteps,
		logger:   logging.NewNop(),
	}
}
