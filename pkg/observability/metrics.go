package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mehdry/flowline/pkg/domain"
)

// Metrics exposes engine activity as Prometheus collectors. Wire it into an
// engine with Hooks():
//
//	m := observability.NewMetrics(prometheus.DefaultRegisterer)
//	engine := runtime.NewEngine(runtime.WithLifecycleHooks(m.Hooks()))
type Metrics struct {
	stepsEntered    *prometheus.CounterVec
	effectsEmitted  *prometheus.CounterVec
	delaysScheduled prometheus.Counter
	delaySeconds    prometheus.Histogram
}

// NewMetrics creates and registers the collectors. Pass nil to skip
// registration (useful when the caller registers manually).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowline",
			Name:      "steps_entered_total",
			Help:      "Steps entered by the executor, by step type.",
		}, []string{"step_type"}),
		effectsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowline",
			Name:      "effects_emitted_total",
			Help:      "Effects emitted by the executor, by effect type.",
		}, []string{"effect_type"}),
		delaysScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowline",
			Name:      "delays_scheduled_total",
			Help:      "Runs suspended at a delay step.",
		}),
		delaySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowline",
			Name:      "delay_duration_seconds",
			Help:      "Configured duration of scheduled delays.",
			Buckets:   []float64{1, 5, 15, 60, 300, 1800, 3600, 86400},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.stepsEntered, m.effectsEmitted, m.delaysScheduled, m.delaySeconds)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, ev *domain.StepEvent) {
			m.stepsEntered.WithLabelValues(string(ev.StepType)).Inc()
		},
		OnEffect: func(_ context.Context, ev *domain.EffectEvent) {
			m.effectsEmitted.WithLabelValues(string(ev.EffectType)).Inc()
		},
		OnDelayScheduled: func(_ context.Context, ev *domain.DelayEvent) {
			m.delaysScheduled.Inc()
			m.delaySeconds.Observe(ev.Seconds.Seconds())
		},
	}
}
