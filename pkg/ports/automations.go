package ports

import (
	"context"

	"github.com/mehdry/flowline/pkg/schema"
)

// AutomationStore exchanges persisted automation records with a backend.
// Records are stored opaquely; compilation into a graph happens on read.
type AutomationStore interface {
	// Put saves or replaces the record under its name.
	Put(ctx context.Context, a *schema.Automation) error

	// Get loads a record by name. Returns domain.ErrAutomationNotFound if
	// no record exists.
	Get(ctx context.Context, name string) (*schema.Automation, error)

	// Delete removes a record by name.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored automations.
	List(ctx context.Context) ([]string, error)
}
