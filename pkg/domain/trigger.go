package domain

// TriggerType identifies how a trigger step is activated.
type TriggerType string

const (
	// TriggerKeyword matches when the inbound message contains any keyword.
	TriggerKeyword TriggerType = "keyword"
	// TriggerExactMatch matches on case-insensitive full equality.
	TriggerExactMatch TriggerType = "exact_match"
	// TriggerSchedule fires on a timetable; content-independent.
	TriggerSchedule TriggerType = "schedule"
	// TriggerWebhook fires on an inbound webhook; content-independent.
	TriggerWebhook TriggerType = "webhook"
	// TriggerIntegration fires on a named integration event.
	TriggerIntegration TriggerType = "integration"
)

// TriggerConfig configures a trigger step.
type TriggerConfig struct {
	Type      TriggerType `json:"type" mapstructure:"type"`
	Keywords  []string    `json:"keywords,omitempty" mapstructure:"keywords"`
	MatchText string      `json:"match_text,omitempty" mapstructure:"match_text"`

	// Integration metadata. The variable set is declared by the integration,
	// not computed here; the resolver exposes the values under these names.
	Integration      string                `json:"integration,omitempty" mapstructure:"integration"`
	WebhookEvent     string                `json:"webhook_event,omitempty" mapstructure:"webhook_event"`
	WebhookVariables []IntegrationVariable `json:"webhook_variables,omitempty" mapstructure:"webhook_variables"`
}

func (TriggerConfig) Kind() StepType { return StepTypeTrigger }

// External returns true when the trigger fires independently of message
// content (schedule, webhook, integration).
func (c TriggerConfig) External() bool {
	switch c.Type {
	case TriggerSchedule, TriggerWebhook, TriggerIntegration:
		return true
	}
	return false
}

// IntegrationVariable describes one named variable an integration event
// makes available to the variable resolver.
type IntegrationVariable struct {
	Name    string `json:"name" mapstructure:"name"`
	Type    string `json:"type,omitempty" mapstructure:"type"`
	Example string `json:"example,omitempty" mapstructure:"example"`
}
