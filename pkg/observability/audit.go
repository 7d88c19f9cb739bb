package observability

import (
	"context"
	"log/slog"

	"github.com/mehdry/flowline/pkg/domain"
)

// AuditHooks returns lifecycle hooks that log every transition through the
// given structured logger. Useful when debugging an automation that behaves
// differently in preview and live runs.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, ev *domain.StepEvent) {
			logger.DebugContext(ctx, "step enter",
				"session_id", ev.SessionID,
				"step_id", ev.StepID,
				"step_type", ev.StepType,
			)
		},
		OnStepLeave: func(ctx context.Context, ev *domain.StepEvent) {
			logger.DebugContext(ctx, "step leave",
				"session_id", ev.SessionID,
				"step_id", ev.StepID,
				"step_type", ev.StepType,
			)
		},
		OnEffect: func(ctx context.Context, ev *domain.EffectEvent) {
			logger.DebugContext(ctx, "effect",
				"session_id", ev.SessionID,
				"step_id", ev.StepID,
				"effect_type", ev.EffectType,
			)
		},
		OnDelayScheduled: func(ctx context.Context, ev *domain.DelayEvent) {
			logger.InfoContext(ctx, "delay scheduled",
				"session_id", ev.SessionID,
				"step_id", ev.StepID,
				"seconds", ev.Seconds.Seconds(),
			)
		},
	}
}

// Merge fans one engine's lifecycle events out to several hook sets, so
// metrics and audit logging can observe the same run.
func Merge(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, ev *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, ev)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, ev *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, ev)
				}
			}
		},
		OnEffect: func(ctx context.Context, ev *domain.EffectEvent) {
			for _, h := range hooks {
				if h.OnEffect != nil {
					h.OnEffect(ctx, ev)
				}
			}
		},
		OnDelayScheduled: func(ctx context.Context, ev *domain.DelayEvent) {
			for _, h := range hooks {
				if h.OnDelayScheduled != nil {
					h.OnDelayScheduled(ctx, ev)
				}
			}
		},
	}
}
