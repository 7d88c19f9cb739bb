package ports

import (
	"context"
)

// ActionRunner executes custom_action steps against host-registered
// commands. Previews run without one; the step then renders a placeholder.
type ActionRunner interface {
	// Run executes the named action. The returned string is surfaced as a
	// status line; an error marks the action failed but does not abort the
	// walk.
	Run(ctx context.Context, action string, params map[string]any) (string, error)
}

// ActionRunnerFunc adapts a function to the ActionRunner interface.
type ActionRunnerFunc func(ctx context.Context, action string, params map[string]any) (string, error)

func (f ActionRunnerFunc) Run(ctx context.Context, action string, params map[string]any) (string, error) {
	return f(ctx, action, params)
}
