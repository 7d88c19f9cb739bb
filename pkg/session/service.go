package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mehdry/flowline/internal/logging"
	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
)

// Service drives live conversations: inbound messages arrive from a
// transport, run state persists through the Manager, and delay steps
// suspend into the scheduler instead of sleeping inline the way Preview
// does.
type Service struct {
	engine    *runtime.Engine
	manager   *Manager
	scheduler ports.DelayScheduler
	sink      ports.EffectSink
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithScheduler sets the delay scheduler used to resume suspended runs.
func WithScheduler(s ports.DelayScheduler) ServiceOption {
	return func(svc *Service) {
		if s != nil {
			svc.scheduler = s
		}
	}
}

// WithSink sets the effect sink that delivers rendered effects outward.
func WithSink(sink ports.EffectSink) ServiceOption {
	return func(svc *Service) {
		if sink != nil {
			svc.sink = sink
		}
	}
}

// WithServiceLogger sets the structured logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(svc *Service) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

// NewService wires an engine and a state manager into a live conversation
// driver. Without a scheduler, delay steps stay suspended until Resume is
// called explicitly; without a sink, effects are only returned to the
// caller.
func NewService(engine *runtime.Engine, manager *Manager, opts ...ServiceOption) *Service {
	svc := &Service{
		engine:  engine,
		manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// HandleInbound processes one inbound message for a session, persisting
// the resulting run state and scheduling any delay suspension.
func (s *Service) HandleInbound(ctx context.Context, g *domain.Graph, sessionID, message string, vc domain.VariableContext) ([]domain.Effect, error) {
	var effects []domain.Effect
	err := s.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prior, loadErr := s.manager.Store().Load(ctx, sessionID)
		if loadErr != nil && !errors.Is(loadErr, domain.ErrSessionNotFound) {
			return loadErr
		}

		var (
			state  *domain.RunState
			runErr error
		)
		if prior != nil && prior.Status == domain.StatusAwaitingInput {
			effects, state, runErr = s.engine.ContinueWithAnswer(ctx, g, prior, message, vc)
		} else {
			effects, state, runErr = s.engine.HandleInbound(ctx, g, sessionID, message, vc)
		}
		if runErr != nil {
			if errors.Is(runErr, domain.ErrNoEntryPoint) {
				return runErr
			}
			s.logger.ErrorContext(ctx, "automation run failed", "session_id", sessionID, "error", runErr)
		}
		return s.settle(ctx, g, sessionID, state, vc)
	})
	if err != nil {
		return effects, err
	}
	return effects, s.deliver(ctx, sessionID, effects)
}

// Resume continues a session suspended on a delay step. The scheduler
// calls this when the delay elapses; it is also safe to call manually.
func (s *Service) Resume(ctx context.Context, g *domain.Graph, sessionID string, vc domain.VariableContext) ([]domain.Effect, error) {
	var effects []domain.Effect
	err := s.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, loadErr := s.manager.Store().Load(ctx, sessionID)
		if loadErr != nil {
			return loadErr
		}
		var runErr error
		effects, state, runErr = s.engine.Resume(ctx, g, state, vc)
		if runErr != nil {
			s.logger.ErrorContext(ctx, "resume failed", "session_id", sessionID, "error", runErr)
		}
		return s.settle(ctx, g, sessionID, state, vc)
	})
	if err != nil {
		return effects, err
	}
	return effects, s.deliver(ctx, sessionID, effects)
}

// End terminates a session, cancelling any pending delay resumption.
func (s *Service) End(ctx context.Context, sessionID string) error {
	if s.scheduler != nil {
		s.scheduler.Cancel(sessionID)
	}
	return s.manager.Delete(ctx, sessionID)
}

// settle persists the post-run state and arranges future resumption for
// delay suspensions. Terminated and failed runs are removed from the
// store so the next message starts fresh.
func (s *Service) settle(ctx context.Context, g *domain.Graph, sessionID string, state *domain.RunState, vc domain.VariableContext) error {
	if state == nil {
		return nil
	}
	store := s.manager.Store()
	switch state.Status {
	case domain.StatusTerminated, domain.StatusFailed:
		return store.Delete(ctx, sessionID)
	case domain.StatusWaitingDelay:
		if err := store.Save(ctx, sessionID, state); err != nil {
			return err
		}
		if s.scheduler == nil {
			return nil
		}
		wait := time.Until(state.ResumeAt)
		return s.scheduler.Schedule(ctx, sessionID, wait, func(fireCtx context.Context) {
			if _, err := s.Resume(fireCtx, g, sessionID, vc); err != nil {
				s.logger.ErrorContext(fireCtx, "scheduled resume failed", "session_id", sessionID, "error", err)
			}
		})
	default:
		return store.Save(ctx, sessionID, state)
	}
}

func (s *Service) deliver(ctx context.Context, sessionID string, effects []domain.Effect) error {
	if s.sink == nil || len(effects) == 0 {
		return nil
	}
	return s.sink.Deliver(ctx, sessionID, effects)
}
