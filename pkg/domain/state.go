package domain

import "time"

// RunStatus defines the current mode of one execution run.
type RunStatus string

const (
	StatusActive        RunStatus = "active"         // Normal walk in progress
	StatusWaitingDelay  RunStatus = "waiting_delay"  // Parked at a delay step, resumption scheduled
	StatusAwaitingInput RunStatus = "awaiting_input" // Waiting for the next inbound message (data_input)
	StatusTerminated    RunStatus = "terminated"     // Walk finished
	StatusFailed        RunStatus = "failed"         // Aborted: integrity error or loop guard
)

// RunState is the persistent snapshot of one conversation run.
type RunState struct {
	// SessionID identifies the recipient/automation pair this run belongs to.
	SessionID string `json:"session_id"`

	// CurrentStepID is the step the walk is positioned at.
	CurrentStepID string `json:"current_step_id"`

	Status RunStatus `json:"status"`

	// ResumeStepID is set while Status is StatusWaitingDelay: the step the
	// scheduled resumption continues from.
	ResumeStepID string `json:"resume_step_id,omitempty"`

	// ResumeAt is when the scheduled resumption fires.
	ResumeAt time.Time `json:"resume_at,omitzero"`

	// AwaitingField is set while Status is StatusAwaitingInput: the field
	// name the next inbound message answers. Consuming that answer is the
	// inbound pipeline's job, not the executor's.
	AwaitingField string `json:"awaiting_field,omitempty"`

	// Visited tracks step IDs seen during the current walk (cycle guard).
	Visited []string `json:"visited,omitempty"`

	// StepsTaken counts executed steps for the run budget.
	StepsTaken int `json:"steps_taken"`

	// Context holds session variables: collected data_input answers and
	// integration-event variables, visible to the resolver.
	Context map[string]any `json:"context,omitempty"`
}

// NewRunState creates a clean run positioned at the given entry step.
func NewRunState(sessionID, entryStepID string) *RunState {
	return &RunState{
		SessionID:     sessionID,
		CurrentStepID: entryStepID,
		Status:        StatusActive,
		Visited:       []string{},
		Context:       make(map[string]any),
	}
}

// Seen reports whether the step was already visited in this walk.
func (s *RunState) Seen(stepID string) bool {
	for _, id := range s.Visited {
		if id == stepID {
			return true
		}
	}
	return false
}

// Clone returns a copy with an independent context and visit list.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return nil
	}
	next := *s
	next.Visited = append([]string(nil), s.Visited...)
	next.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		next.Context[k] = v
	}
	return &next
}
