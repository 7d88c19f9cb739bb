// Package compiler converts raw persisted step configuration into the typed
// variants the executor works with.
package compiler

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mehdry/flowline/pkg/domain"
)

// Parser decodes per-type raw config maps into the tagged union.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseConfig decodes raw into the config variant for the given step type.
// A nil raw map yields the zero variant, so a half-built step still executes
// (emitting placeholder effects) instead of failing the whole graph.
func (p *Parser) ParseConfig(stepType domain.StepType, raw map[string]any) (domain.StepConfig, error) {
	switch stepType {
	case domain.StepTypeTrigger:
		return decode[domain.TriggerConfig](raw)
	case domain.StepTypeMessage:
		return decode[domain.MessageConfig](raw)
	case domain.StepTypeAIResponse:
		return decode[domain.AIResponseConfig](raw)
	case domain.StepTypeCondition:
		return decode[domain.ConditionConfig](raw)
	case domain.StepTypeDataInput:
		return decode[domain.DataInputConfig](raw)
	case domain.StepTypeAPICall:
		return decode[domain.APICallConfig](raw)
	case domain.StepTypeWebhook:
		return decode[domain.WebhookConfig](raw)
	case domain.StepTypeDelay:
		return decode[domain.DelayConfig](raw)
	case domain.StepTypeCustomAction:
		return decode[domain.CustomActionConfig](raw)
	case domain.StepTypeBranch:
		return decode[domain.BranchConfig](raw)
	default:
		return nil, fmt.Errorf("unknown step type %q", stepType)
	}
}

func decode[T domain.StepConfig](raw map[string]any) (domain.StepConfig, error) {
	var cfg T
	if raw == nil {
		return cfg, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true, // JSON numbers arrive as float64
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
