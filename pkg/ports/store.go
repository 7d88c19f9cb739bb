package ports

import (
	"context"

	"github.com/mehdry/flowline/pkg/domain"
)

// RunStore defines the interface for persisting execution run state.
// This allows a run suspended at a delay step to be resumed later, possibly
// by a different process.
type RunStore interface {
	// Save persists the run state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.RunState) error

	// Load retrieves the run state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.RunState, error)

	// Delete removes the run state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all active sessions.
	List(ctx context.Context) ([]string, error)
}
