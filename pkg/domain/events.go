package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter      EventType = "step_enter"
	EventStepLeave      EventType = "step_leave"
	EventEffect         EventType = "effect"
	EventDelayScheduled EventType = "delay_scheduled"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry to or exit from a step.
type StepEvent struct {
	EventBase
	StepID   string   `json:"step_id"`
	StepType StepType `json:"step_type"`
}

// EffectEvent represents one emitted effect.
type EffectEvent struct {
	EventBase
	StepID     string     `json:"step_id"`
	EffectType EffectType `json:"effect_type"`
}

// DelayEvent represents a scheduled suspension.
type DelayEvent struct {
	EventBase
	StepID  string        `json:"step_id"`
	Seconds time.Duration `json:"seconds"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter      func(context.Context, *StepEvent)
	OnStepLeave      func(context.Context, *StepEvent)
	OnEffect         func(context.Context, *EffectEvent)
	OnDelayScheduled func(context.Context, *DelayEvent)
}
