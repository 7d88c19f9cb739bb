// Package process executes custom_action steps as local commands.
// It follows a Strict Registry pattern for security (Allow-Listing): only
// actions registered up front can run.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// RegisteredAction defines an allowed command execution.
type RegisteredAction struct {
	Command string
	Args    []string
}

// Runner implements ports.ActionRunner on top of os/exec.
type Runner struct {
	registry map[string]RegisteredAction
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(actions map[string]ActionConfig) RunnerOption {
	return func(r *Runner) {
		for name, action := range actions {
			r.Register(name, action.Command, action.Args...)
		}
	}
}

// WithBaseDir sets the working directory for executed commands.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process-backed action runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredAction),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredAction{
		Command: command,
		Args:    args,
	}
}

// Run executes a registered action. Step params are passed as environment
// variables, never as command-line flags: this prevents flag injection from
// builder-supplied values.
func (r *Runner) Run(ctx context.Context, action string, params map[string]any) (string, error) {
	proc, ok := r.registry[action]
	if !ok {
		return "", fmt.Errorf("action not registered: %s", action)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir

	env := []string{}
	for k, v := range params {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			// Complex types: try JSON, fall back to Go format.
			if raw, err := json.Marshal(v); err == nil {
				val = string(raw)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("FLOWLINE_PARAM_%s=%s", strings.ToUpper(k), val))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
