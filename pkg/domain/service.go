package domain

// AIRequest is the call side of the AI Response Service contract.
type AIRequest struct {
	Message      string  `json:"message"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	ContextData  string  `json:"context_data,omitempty"`
	Tone         string  `json:"tone,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	RecipientID  string  `json:"recipient_id,omitempty"`
	AutomationID string  `json:"automation_id,omitempty"`
}

// AIResponse is the response side of the AI Response Service contract.
// RateLimited is surfaced as a distinct user-facing message, never folded
// into a generic error.
type AIResponse struct {
	Success      bool   `json:"success"`
	ResponseText string `json:"response_text,omitempty"`
	TokenUsage   int    `json:"token_usage,omitempty"`
	RateLimited  bool   `json:"rate_limited,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HTTPCallRequest describes an outbound call for live api_call/webhook steps.
type HTTPCallRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// HTTPCallResponse is the collaborator's reply.
type HTTPCallResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}
