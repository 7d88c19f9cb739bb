package domain

// EffectType categorizes an outbound effect produced by the executor.
type EffectType string

const (
	// EffectMessage is a rendered outbound message (text, attachments, buttons).
	EffectMessage EffectType = "MESSAGE"

	// EffectAIResponse carries text produced by the AI Response Service,
	// emitted unchanged.
	EffectAIResponse EffectType = "AI_RESPONSE"

	// EffectStatus is a system/status line: condition outcomes, simulated
	// calls, placeholders, configuration errors.
	EffectStatus EffectType = "STATUS"

	// EffectPrompt asks the recipient for a field value (data_input).
	EffectPrompt EffectType = "PROMPT"

	// EffectDelay announces a suspension of the configured duration.
	EffectDelay EffectType = "DELAY"
)

// Effect is one ordered outbound result of walking the graph.
type Effect struct {
	Type   EffectType `json:"type"`
	StepID string     `json:"step_id"`
	Text   string     `json:"text"`

	// Message payload (EffectMessage only).
	Attachments []string `json:"attachments,omitempty"`
	Buttons     []Button `json:"buttons,omitempty"`

	// DelaySeconds is set on EffectDelay.
	DelaySeconds int `json:"delay_seconds,omitempty"`

	// Field is set on EffectPrompt: the name the next inbound answer fills.
	Field string `json:"field,omitempty"`
}
