package dsl

import (
	"fmt"

	"github.com/mehdry/flowline/pkg/domain"
)

// StepBuilder provides a fluent API for configuring one step.
type StepBuilder struct {
	id       string
	stepType domain.StepType
	title    string

	trigger   *domain.TriggerConfig
	message   domain.MessageConfig
	ai        domain.AIResponseConfig
	condition domain.ConditionConfig
	dataInput domain.DataInputConfig
	http      domain.APICallConfig
	delay     domain.DelayConfig
	action    domain.CustomActionConfig

	builder *Builder
}

// Title sets the display title shown in the builder UI and graph export.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.title = title
	return s
}

// To connects this step to one or more successors with plain edges.
func (s *StepBuilder) To(ids ...string) *StepBuilder {
	for _, id := range ids {
		s.builder.Connect(s.id, id)
	}
	return s
}

// ButtonTo connects a button (by index) of this message step to a successor.
func (s *StepBuilder) ButtonTo(button int, id string) *StepBuilder {
	idx := button
	s.builder.edges = append(s.builder.edges, edge{from: s.id, to: id, button: &idx})
	return s
}

// -- Trigger configuration --

// Keywords configures a keyword trigger.
func (s *StepBuilder) Keywords(keywords ...string) *StepBuilder {
	s.trigger = &domain.TriggerConfig{Type: domain.TriggerKeyword, Keywords: keywords}
	return s
}

// ExactMatch configures an exact-match trigger.
func (s *StepBuilder) ExactMatch(text string) *StepBuilder {
	s.trigger = &domain.TriggerConfig{Type: domain.TriggerExactMatch, MatchText: text}
	return s
}

// External configures an externally invoked trigger (schedule, webhook,
// integration).
func (s *StepBuilder) External(triggerType domain.TriggerType) *StepBuilder {
	s.trigger = &domain.TriggerConfig{Type: triggerType}
	return s
}

// -- Message configuration --

// Text sets the outbound text of a message step.
func (s *StepBuilder) Text(text string) *StepBuilder {
	s.message.Text = text
	return s
}

// Attach adds attachment URLs to a message step.
func (s *StepBuilder) Attach(urls ...string) *StepBuilder {
	s.message.Attachments = append(s.message.Attachments, urls...)
	return s
}

// Button adds an automation button. Use ButtonTo to wire its edge.
func (s *StepBuilder) Button(text string) *StepBuilder {
	s.message.Buttons = append(s.message.Buttons, domain.Button{Text: text, Type: domain.ButtonAutomation})
	return s
}

// LinkButton adds a link button.
func (s *StepBuilder) LinkButton(text, url string) *StepBuilder {
	s.message.Buttons = append(s.message.Buttons, domain.Button{Text: text, Type: domain.ButtonLink, URL: url})
	return s
}

// PhoneButton adds a phone button.
func (s *StepBuilder) PhoneButton(text, phone string) *StepBuilder {
	s.message.Buttons = append(s.message.Buttons, domain.Button{Text: text, Type: domain.ButtonPhone, Phone: phone})
	return s
}

// -- AI configuration --

// Persona sets the system prompt and tone of an ai_response step.
func (s *StepBuilder) Persona(systemPrompt, tone string) *StepBuilder {
	s.ai.SystemPrompt = systemPrompt
	s.ai.Tone = tone
	return s
}

// Fallback sets the text used when the AI backend is unavailable.
func (s *StepBuilder) Fallback(text string) *StepBuilder {
	s.ai.FallbackText = text
	return s
}

// -- Condition configuration --

// Rule adds a predicate to a condition step.
func (s *StepBuilder) Rule(op domain.ConditionOp, value string) *StepBuilder {
	s.condition.Rules = append(s.condition.Rules, domain.ConditionRule{Op: op, Value: value})
	return s
}

// -- Data input configuration --

// Prompt configures a data_input step: the question to ask and the context
// field the answer fills.
func (s *StepBuilder) Prompt(prompt, field string) *StepBuilder {
	s.dataInput.Prompt = prompt
	s.dataInput.Field = field
	return s
}

// -- HTTP configuration --

// Call configures the endpoint of an api_call or webhook step.
func (s *StepBuilder) Call(method, url string) *StepBuilder {
	s.http.Method = method
	s.http.URL = url
	return s
}

// Body sets the request body template of an api_call or webhook step.
func (s *StepBuilder) Body(body string) *StepBuilder {
	s.http.Body = body
	return s
}

// Header adds a request header to an api_call or webhook step.
func (s *StepBuilder) Header(key, value string) *StepBuilder {
	if s.http.Headers == nil {
		s.http.Headers = make(map[string]string)
	}
	s.http.Headers[key] = value
	return s
}

// -- Delay configuration --

// Wait sets the suspension length of a delay step in seconds.
func (s *StepBuilder) Wait(seconds int) *StepBuilder {
	s.delay.Seconds = seconds
	return s
}

// -- Custom action configuration --

// Action names the registered action a custom_action step invokes.
func (s *StepBuilder) Action(name string, params map[string]any) *StepBuilder {
	s.action.Action = name
	s.action.Params = params
	return s
}

func (s *StepBuilder) step() (*domain.Step, error) {
	step := &domain.Step{
		ID:    s.id,
		Type:  s.stepType,
		Title: s.title,
	}

	switch s.stepType {
	case domain.StepTypeTrigger:
		if s.trigger == nil {
			return nil, fmt.Errorf("trigger step %q has no trigger configuration", s.id)
		}
		step.Config = *s.trigger
	case domain.StepTypeMessage:
		step.Config = s.message
	case domain.StepTypeAIResponse:
		step.Config = s.ai
	case domain.StepTypeCondition:
		step.Config = s.condition
	case domain.StepTypeDataInput:
		step.Config = s.dataInput
	case domain.StepTypeAPICall:
		step.Config = s.http
	case domain.StepTypeWebhook:
		step.Config = domain.WebhookConfig(s.http)
	case domain.StepTypeDelay:
		step.Config = s.delay
	case domain.StepTypeCustomAction:
		step.Config = s.action
	default:
		return nil, fmt.Errorf("step %q: unsupported type %q", s.id, s.stepType)
	}

	return step, nil
}
