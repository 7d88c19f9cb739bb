package ports

import (
	"context"
	"time"
)

// DelayScheduler parks a suspended run and resumes it after the configured
// duration. Implementations must not block the caller: resumption is a
// scheduled callback so one conversation's delay never stalls another.
type DelayScheduler interface {
	// Schedule registers fn to run after d, keyed by session ID.
	// Scheduling again under the same key replaces the pending resumption.
	Schedule(ctx context.Context, sessionID string, d time.Duration, fn func(context.Context)) error

	// Cancel drops the pending resumption for the session, if any.
	// Used when the owning automation or conversation is deleted.
	Cancel(sessionID string) bool
}
