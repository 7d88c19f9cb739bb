package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/domain"
)

func TestMetrics_CountsEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepEnter(ctx, &domain.StepEvent{StepID: "m1", StepType: domain.StepTypeMessage})
	hooks.OnStepEnter(ctx, &domain.StepEvent{StepID: "m2", StepType: domain.StepTypeMessage})
	hooks.OnEffect(ctx, &domain.EffectEvent{StepID: "m1", EffectType: domain.EffectMessage})
	hooks.OnDelayScheduled(ctx, &domain.DelayEvent{StepID: "d1", Seconds: 5 * time.Second})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.stepsEntered.WithLabelValues(string(domain.StepTypeMessage))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.effectsEmitted.WithLabelValues(string(domain.EffectMessage))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.delaysScheduled))
}

func TestMerge_FansOutToAllHookSets(t *testing.T) {
	var first, second int
	merged := Merge(
		domain.LifecycleHooks{OnStepEnter: func(context.Context, *domain.StepEvent) { first++ }},
		domain.LifecycleHooks{OnStepEnter: func(context.Context, *domain.StepEvent) { second++ }},
		domain.LifecycleHooks{}, // nil callbacks are skipped
	)

	require.NotNil(t, merged.OnStepEnter)
	merged.OnStepEnter(context.Background(), &domain.StepEvent{StepID: "s1"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
