package schema

import (
	"fmt"
	"slices"

	"github.com/mehdry/flowline/pkg/domain"
)

var validStatuses = []string{"", StatusDraft, StatusActive, StatusPaused, StatusArchived}

// Validate checks the record for structural problems before compilation:
// unknown step types, duplicate IDs, dangling connection references and an
// unknown status. It reports the first problem found.
func (a *Automation) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("automation missing name")
	}
	if !slices.Contains(validStatuses, a.Status) {
		return fmt.Errorf("unknown status %q", a.Status)
	}

	seen := make(map[string]bool, len(a.Workflow))
	for _, rec := range a.Workflow {
		if rec.ID == "" {
			return fmt.Errorf("step missing id")
		}
		if seen[rec.ID] {
			return fmt.Errorf("step %q: %w", rec.ID, domain.ErrDuplicateStep)
		}
		seen[rec.ID] = true

		if !slices.Contains(domain.KnownStepTypes, rec.Type) {
			return fmt.Errorf("step %q: unknown type %q", rec.ID, rec.Type)
		}
	}

	for _, e := range a.Connections {
		if !seen[e.From] {
			return fmt.Errorf("connection from %q: %w", e.From, domain.ErrStepNotFound)
		}
		if !seen[e.To] {
			return fmt.Errorf("connection to %q: %w", e.To, domain.ErrStepNotFound)
		}
		if e.From == e.To {
			return fmt.Errorf("connection %s->%s: %w", e.From, e.To, domain.ErrSelfLoop)
		}
	}
	return nil
}
