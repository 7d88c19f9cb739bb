package flowline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mehdry/flowline/internal/presentation/graph"
	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/internal/validator"
	"github.com/mehdry/flowline/pkg/adapters/memory"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
	"github.com/mehdry/flowline/pkg/schema"
	"github.com/mehdry/flowline/pkg/session"
)

// Version is the library version, reported by the CLI and the HTTP and
// MCP adapters.
var Version = "0.3.0"

// App is the high-level entry point for the flowline library.
// It wraps the internal runtime and provides a simplified API for consumers.
type App struct {
	engine  *runtime.Engine
	store   ports.AutomationStore
	service *session.Service

	runStore    ports.RunStore
	scheduler   ports.DelayScheduler
	sink        ports.EffectSink
	hooks       domain.LifecycleHooks
	runtimeOpts []runtime.EngineOption
	logger      *slog.Logger
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLifecycleHooks registers observability hooks on the engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// WithRunStore injects the store for suspended run state. Defaults to an
// in-memory store.
func WithRunStore(store ports.RunStore) Option {
	return func(a *App) {
		a.runStore = store
	}
}

// WithScheduler injects the timer backend used to resume delayed runs.
func WithScheduler(s ports.DelayScheduler) Option {
	return func(a *App) {
		a.scheduler = s
	}
}

// WithEffectSink injects the outbound delivery channel for live sessions.
func WithEffectSink(sink ports.EffectSink) Option {
	return func(a *App) {
		a.sink = sink
	}
}

// WithResponder wires an AI backend for ai_response steps.
func WithResponder(r ports.AIResponder) Option {
	return func(a *App) {
		a.runtimeOpts = append(a.runtimeOpts, runtime.WithResponder(r))
	}
}

// WithHTTPCaller wires the outbound HTTP client for api_call and webhook steps.
func WithHTTPCaller(c ports.HTTPCaller) Option {
	return func(a *App) {
		a.runtimeOpts = append(a.runtimeOpts, runtime.WithHTTPCaller(c))
	}
}

// WithMaxSteps overrides the per-run step ceiling.
func WithMaxSteps(n int) Option {
	return func(a *App) {
		a.runtimeOpts = append(a.runtimeOpts, runtime.WithMaxSteps(n))
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New initializes a new flowline App on top of an automation store.
// A nil store falls back to an in-memory one, which suits previews and tests.
func New(store ports.AutomationStore, opts ...Option) *App {
	a := &App{store: store}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		a.store = memory.NewAutomations()
	}
	if a.runStore == nil {
		a.runStore = memory.NewStore()
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithLogger(a.logger),
	}
	runtimeOpts = append(runtimeOpts, a.runtimeOpts...)
	a.engine = runtime.NewEngine(runtimeOpts...)

	svcOpts := []session.ServiceOption{session.WithServiceLogger(a.logger)}
	if a.scheduler != nil {
		svcOpts = append(svcOpts, session.WithScheduler(a.scheduler))
	}
	if a.sink != nil {
		svcOpts = append(svcOpts, session.WithSink(a.sink))
	}
	a.service = session.NewService(a.engine, session.NewManager(a.runStore), svcOpts...)

	return a
}

// Save validates and stores an automation record. Records that cannot
// compile into an executable graph are rejected.
func (a *App) Save(ctx context.Context, record *schema.Automation) error {
	if _, err := record.Compile(); err != nil {
		return fmt.Errorf("automation %q does not compile: %w", record.Name, err)
	}
	return a.store.Put(ctx, record)
}

// Get fetches a stored automation record by name.
func (a *App) Get(ctx context.Context, name string) (*schema.Automation, error) {
	return a.store.Get(ctx, name)
}

// Delete removes a stored automation record.
func (a *App) Delete(ctx context.Context, name string) error {
	return a.store.Delete(ctx, name)
}

// List returns the names of all stored automations.
func (a *App) List(ctx context.Context) ([]string, error) {
	return a.store.List(ctx)
}

// Compile loads a stored automation and compiles it into an executable graph.
func (a *App) Compile(ctx context.Context, name string) (*domain.Graph, error) {
	record, err := a.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return record.Compile()
}

// Validate lints a stored automation and returns its findings.
func (a *App) Validate(ctx context.Context, name string) ([]validator.Issue, error) {
	g, err := a.Compile(ctx, name)
	if err != nil {
		return nil, err
	}
	return validator.ValidateGraph(g), nil
}

// Mermaid renders a stored automation as a Mermaid flowchart.
func (a *App) Mermaid(ctx context.Context, name string) (string, error) {
	g, err := a.Compile(ctx, name)
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(g, nil), nil
}

// Preview starts a simulated conversation against a stored automation.
func (a *App) Preview(ctx context.Context, name string, opts ...session.PreviewOption) (*session.Preview, error) {
	g, err := a.Compile(ctx, name)
	if err != nil {
		return nil, err
	}
	return session.NewPreview(a.engine, g, opts...), nil
}

// HandleInbound routes a live inbound message through a stored automation.
func (a *App) HandleInbound(ctx context.Context, name, sessionID, message string, vc domain.VariableContext) ([]domain.Effect, error) {
	g, err := a.Compile(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.service.HandleInbound(ctx, g, sessionID, message, vc)
}

// Engine exposes the underlying runtime for adapters that need it directly.
func (a *App) Engine() *runtime.Engine {
	return a.engine
}

// Service exposes the live session service.
func (a *App) Service() *session.Service {
	return a.service
}

// Store exposes the underlying automation store.
func (a *App) Store() ports.AutomationStore {
	return a.store
}
