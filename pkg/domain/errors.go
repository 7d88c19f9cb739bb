package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStepNotFound is returned when a step reference cannot be resolved.
var ErrStepNotFound = errors.New("step not found")

// ErrAutomationNotFound is returned when an automation name is unknown to
// the backing store.
var ErrAutomationNotFound = errors.New("automation not found")

// ErrDuplicateStep is returned when a step ID already exists in the graph.
var ErrDuplicateStep = errors.New("duplicate step id")

// ErrDuplicateEdge is returned when an identical edge already exists.
var ErrDuplicateEdge = errors.New("duplicate edge")

// ErrEdgeNotFound is returned when removing an edge that does not exist.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrSelfLoop is returned when an edge would connect a step to itself.
var ErrSelfLoop = errors.New("step cannot connect to itself")

// ErrNoEntryPoint is returned by the matcher when no step accepts the message.
var ErrNoEntryPoint = errors.New("no entry point for message")

// LoopError aborts a run when the same step is revisited within one walk or
// the step budget is exceeded.
type LoopError struct {
	StepID     string
	StepsTaken int
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("automation loop detected at step %q after %d steps", e.StepID, e.StepsTaken)
}
