package domain

// StepType identifies the execution behavior of a step.
type StepType string

const (
	// StepTypeTrigger gates whether an inbound message starts the flow.
	StepTypeTrigger StepType = "trigger"
	// StepTypeMessage sends a templated outbound message (text, attachments, buttons).
	StepTypeMessage StepType = "message"
	// StepTypeAIResponse delegates the reply to the AI Response Service.
	StepTypeAIResponse StepType = "ai_response"
	// StepTypeCondition evaluates predicates against the inbound message.
	StepTypeCondition StepType = "condition"
	// StepTypeDataInput prompts the recipient for a field value.
	StepTypeDataInput StepType = "data_input"
	// StepTypeAPICall invokes an external HTTP endpoint (live) or simulates it (preview).
	StepTypeAPICall StepType = "api_call"
	// StepTypeWebhook posts a payload to a configured webhook URL.
	StepTypeWebhook StepType = "webhook"
	// StepTypeDelay suspends the run for a configured duration.
	StepTypeDelay StepType = "delay"
	// StepTypeCustomAction is a user-defined action, rendered as a placeholder.
	StepTypeCustomAction StepType = "custom_action"
	// StepTypeBranch is reserved for multi-way routing, rendered as a placeholder.
	StepTypeBranch StepType = "branch"
)

// KnownStepTypes lists every step type the executor understands.
var KnownStepTypes = []StepType{
	StepTypeTrigger, StepTypeMessage, StepTypeAIResponse, StepTypeCondition,
	StepTypeDataInput, StepTypeAPICall, StepTypeWebhook, StepTypeDelay,
	StepTypeCustomAction, StepTypeBranch,
}

// StepConfig is the tagged union of per-type step configuration.
// Each variant knows which step type it belongs to.
type StepConfig interface {
	Kind() StepType
}

// Step is one node of an automation graph.
type Step struct {
	ID    string   `json:"id"`
	Type  StepType `json:"type"`
	Title string   `json:"title,omitempty"`

	// Config holds the typed variant for this step's type.
	// It is decoded from the raw persisted form by the compiler.
	Config StepConfig `json:"-"`

	// TriggerKeywords is an optional comma-separated keyword list that may
	// appear on any step and takes priority over the declared type when
	// matching inbound messages.
	TriggerKeywords string `json:"trigger_keywords,omitempty"`

	// Connections is a derived view of plain (non-button) successors.
	// The graph's edge list is the single source of truth; this slice is
	// recomputed after every mutation and must never be edited directly.
	Connections []string `json:"connections,omitempty"`
}

// ButtonType identifies what activating a button does.
type ButtonType string

const (
	// ButtonAutomation buttons participate in the execution graph.
	ButtonAutomation ButtonType = "automation"
	// ButtonLink and ButtonPhone are terminal: rendered only, no edge.
	ButtonLink  ButtonType = "link"
	ButtonPhone ButtonType = "phone"
)

// Button is an interactive element inside a message step.
type Button struct {
	Text        string     `json:"text" mapstructure:"text"`
	Type        ButtonType `json:"type" mapstructure:"type"`
	URL         string     `json:"url,omitempty" mapstructure:"url"`
	Phone       string     `json:"phone,omitempty" mapstructure:"phone"`
	ConnectedTo string     `json:"connected_to,omitempty" mapstructure:"connected_to"`
}

// MessageConfig configures a message step.
type MessageConfig struct {
	Text        string   `json:"text" mapstructure:"text"`
	Attachments []string `json:"attachments,omitempty" mapstructure:"attachments"`
	Buttons     []Button `json:"buttons,omitempty" mapstructure:"buttons"`

	// Variables is the positional list backing {{1}}, {{2}}, ... tokens.
	Variables []string `json:"variables,omitempty" mapstructure:"variables"`
}

func (MessageConfig) Kind() StepType { return StepTypeMessage }

// AIResponseConfig configures an ai_response step.
type AIResponseConfig struct {
	SystemPrompt string  `json:"system_prompt,omitempty" mapstructure:"system_prompt"`
	ContextData  string  `json:"context_data,omitempty" mapstructure:"context_data"`
	Tone         string  `json:"tone,omitempty" mapstructure:"tone"`
	Temperature  float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens    int     `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	FallbackText string  `json:"fallback_text,omitempty" mapstructure:"fallback_text"`
}

func (AIResponseConfig) Kind() StepType { return StepTypeAIResponse }

// ConditionOp is a predicate operator over the inbound message text.
type ConditionOp string

const (
	OpContains   ConditionOp = "contains"
	OpEquals     ConditionOp = "equals"
	OpStartsWith ConditionOp = "starts_with"
)

// ConditionRule is one predicate inside a condition step.
type ConditionRule struct {
	Op    ConditionOp `json:"op" mapstructure:"op"`
	Value string      `json:"value" mapstructure:"value"`
}

// ConditionConfig configures a condition step.
// TruePath/FalsePath are preserved from the persisted form but the executor
// does not branch on them; the step only reports the outcome.
type ConditionConfig struct {
	Rules     []ConditionRule `json:"rules" mapstructure:"rules"`
	TruePath  string          `json:"true_path,omitempty" mapstructure:"true_path"`
	FalsePath string          `json:"false_path,omitempty" mapstructure:"false_path"`
}

func (ConditionConfig) Kind() StepType { return StepTypeCondition }

// DataInputConfig configures a data_input step.
type DataInputConfig struct {
	Prompt string `json:"prompt" mapstructure:"prompt"`
	Field  string `json:"field" mapstructure:"field"`
}

func (DataInputConfig) Kind() StepType { return StepTypeDataInput }

// APICallConfig configures an api_call or webhook step.
type APICallConfig struct {
	URL     string            `json:"url" mapstructure:"url"`
	Method  string            `json:"method,omitempty" mapstructure:"method"`
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
	Body    string            `json:"body,omitempty" mapstructure:"body"`
}

func (APICallConfig) Kind() StepType { return StepTypeAPICall }

// WebhookConfig configures a webhook step. It shares the HTTP shape of
// APICallConfig but keeps its own identity for the tagged union.
type WebhookConfig struct {
	URL     string            `json:"url" mapstructure:"url"`
	Method  string            `json:"method,omitempty" mapstructure:"method"`
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
	Body    string            `json:"body,omitempty" mapstructure:"body"`
}

func (WebhookConfig) Kind() StepType { return StepTypeWebhook }

// DelayConfig configures a delay step.
type DelayConfig struct {
	// Duration is the suspension length in seconds.
	Seconds int `json:"seconds" mapstructure:"seconds"`
}

func (DelayConfig) Kind() StepType { return StepTypeDelay }

// CustomActionConfig configures a custom_action step.
type CustomActionConfig struct {
	Action string         `json:"action,omitempty" mapstructure:"action"`
	Params map[string]any `json:"params,omitempty" mapstructure:"params"`
}

func (CustomActionConfig) Kind() StepType { return StepTypeCustomAction }

// BranchConfig configures a branch step. Routing semantics are not defined
// yet; the executor renders a placeholder.
type BranchConfig struct {
	Label string `json:"label,omitempty" mapstructure:"label"`
}

func (BranchConfig) Kind() StepType { return StepTypeBranch }

// Message returns the message config if this step is a message step.
func (s *Step) Message() (MessageConfig, bool) {
	cfg, ok := s.Config.(MessageConfig)
	return cfg, ok
}

// Trigger returns the trigger config if this step is a trigger step.
func (s *Step) Trigger() (TriggerConfig, bool) {
	cfg, ok := s.Config.(TriggerConfig)
	return cfg, ok
}
