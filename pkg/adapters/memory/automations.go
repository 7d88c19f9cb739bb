package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/schema"
)

// Automations implements ports.AutomationStore using an in-memory map.
// Records are held serialized so readers always get an isolated copy.
type Automations struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewAutomations creates an empty in-memory automation store.
func NewAutomations() *Automations {
	return &Automations{records: make(map[string][]byte)}
}

// NewFromAutomations seeds the store from records.
// This handles serialization automatically, improving DX for tests.
func NewFromAutomations(records ...*schema.Automation) (*Automations, error) {
	s := NewAutomations()
	for _, a := range records {
		if err := s.Put(context.Background(), a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Put saves or replaces the record under its name.
func (s *Automations) Put(ctx context.Context, a *schema.Automation) error {
	if a.Name == "" {
		return fmt.Errorf("automation missing name")
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", a.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[a.Name] = raw
	return nil
}

// Get loads a record by name.
func (s *Automations) Get(ctx context.Context, name string) (*schema.Automation, error) {
	s.mu.RLock()
	raw, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAutomationNotFound
	}

	var a schema.Automation
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", name, err)
	}
	return &a, nil
}

// Delete removes a record by name.
func (s *Automations) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, name)
	return nil
}

// List returns all stored automation names.
func (s *Automations) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
