package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Edge is a directed link between two steps. FromButton, when set, scopes
// the edge to one interactive button on the source step (0-based index);
// nil means a plain step-level successor.
type Edge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	FromButton *int   `json:"from_button,omitempty"`
}

// sameButton compares two optional button slots.
func sameButton(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Equal reports whether two edges describe the same connection.
func (e Edge) Equal(other Edge) bool {
	return e.From == other.From && e.To == other.To && sameButton(e.FromButton, other.FromButton)
}

// Graph is a mutable automation graph: a set of typed steps plus a directed
// edge list. The edge list is the single source of truth for connectivity;
// each step's Connections slice is recomputed after every mutation.
//
// Graph is not safe for concurrent mutation. Executors must work against a
// Snapshot so builder edits cannot corrupt an in-flight run.
type Graph struct {
	steps map[string]*Step
	order []string
	edges []Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{steps: make(map[string]*Step)}
}

// AddStep inserts a step. The ID must be unique within the graph.
func (g *Graph) AddStep(step *Step) error {
	if step == nil || step.ID == "" {
		return fmt.Errorf("step missing ID")
	}
	if _, exists := g.steps[step.ID]; exists {
		return fmt.Errorf("step %q: %w", step.ID, ErrDuplicateStep)
	}
	g.steps[step.ID] = step
	g.order = append(g.order, step.ID)
	g.refreshConnections(step.ID)
	return nil
}

// RemoveStep deletes a step and cascades: every edge touching it is removed
// and any automation button pointing at it is disconnected.
func (g *Graph) RemoveStep(id string) error {
	if _, ok := g.steps[id]; !ok {
		return fmt.Errorf("step %q: %w", id, ErrStepNotFound)
	}

	delete(g.steps, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })

	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.From == id || e.To == id
	})

	// Disconnect buttons that referenced the removed step.
	for _, step := range g.steps {
		cfg, ok := step.Message()
		if !ok {
			continue
		}
		changed := false
		for i := range cfg.Buttons {
			if cfg.Buttons[i].ConnectedTo == id {
				cfg.Buttons[i].ConnectedTo = ""
				changed = true
			}
		}
		if changed {
			step.Config = cfg
		}
	}

	g.refreshAllConnections()
	return nil
}

// AddEdge links two existing steps. Self-loops, dangling endpoints and
// duplicate edges are rejected.
func (g *Graph) AddEdge(from, to string, fromButton *int) error {
	if from == to {
		return fmt.Errorf("edge %s->%s: %w", from, to, ErrSelfLoop)
	}
	if _, ok := g.steps[from]; !ok {
		return fmt.Errorf("edge source %q: %w", from, ErrStepNotFound)
	}
	if _, ok := g.steps[to]; !ok {
		return fmt.Errorf("edge target %q: %w", to, ErrStepNotFound)
	}

	candidate := Edge{From: from, To: to, FromButton: fromButton}
	for _, e := range g.edges {
		if e.Equal(candidate) {
			return fmt.Errorf("edge %s->%s: %w", from, to, ErrDuplicateEdge)
		}
	}

	g.edges = append(g.edges, candidate)
	g.refreshConnections(from)
	return nil
}

// RemoveEdge deletes the edge with the given origin, target and button slot.
func (g *Graph) RemoveEdge(from, to string, fromButton *int) error {
	target := Edge{From: from, To: to, FromButton: fromButton}
	before := len(g.edges)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.Equal(target) })
	if len(g.edges) == before {
		return fmt.Errorf("edge %s->%s: %w", from, to, ErrEdgeNotFound)
	}
	g.refreshConnections(from)
	return nil
}

// Successors returns the edges originating from stepID on the given button
// slot. A nil button selects plain (step-level) successors.
func (g *Graph) Successors(stepID string, button *int) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == stepID && sameButton(e.FromButton, button) {
			out = append(out, e)
		}
	}
	return out
}

// Step returns the step with the given ID, or nil.
func (g *Graph) Step(id string) *Step {
	return g.steps[id]
}

// Steps returns all steps in insertion order.
func (g *Graph) Steps() []*Step {
	out := make([]*Step, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.steps[id])
	}
	return out
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Len returns the number of steps.
func (g *Graph) Len() int { return len(g.steps) }

// TriggerStep returns the first trigger-typed step, or nil.
func (g *Graph) TriggerStep() *Step {
	for _, id := range g.order {
		if g.steps[id].Type == StepTypeTrigger {
			return g.steps[id]
		}
	}
	return nil
}

// Validate checks referential integrity: every edge endpoint and every
// connected button must reference an existing step.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.steps[e.From]; !ok {
			return fmt.Errorf("edge references missing source %q: %w", e.From, ErrStepNotFound)
		}
		if _, ok := g.steps[e.To]; !ok {
			return fmt.Errorf("edge references missing target %q: %w", e.To, ErrStepNotFound)
		}
		if e.From == e.To {
			return fmt.Errorf("edge %s->%s: %w", e.From, e.To, ErrSelfLoop)
		}
	}
	for _, step := range g.steps {
		cfg, ok := step.Message()
		if !ok {
			continue
		}
		for i, b := range cfg.Buttons {
			if b.ConnectedTo == "" {
				continue
			}
			if _, ok := g.steps[b.ConnectedTo]; !ok {
				return fmt.Errorf("step %q button %d references missing step %q: %w",
					step.ID, i, b.ConnectedTo, ErrStepNotFound)
			}
		}
	}
	return nil
}

// Snapshot returns a deep copy suitable for one immutable execution run.
func (g *Graph) Snapshot() *Graph {
	clone := NewGraph()
	clone.order = slices.Clone(g.order)
	clone.edges = slices.Clone(g.edges)
	for id, step := range g.steps {
		copied := *step
		copied.Connections = slices.Clone(step.Connections)
		copied.Config = cloneConfig(step.Config)
		clone.steps[id] = &copied
	}
	return clone
}

// cloneConfig copies the mutable parts of a step config so a builder edit
// cannot leak into an in-flight run.
func cloneConfig(config StepConfig) StepConfig {
	switch cfg := config.(type) {
	case TriggerConfig:
		cfg.Keywords = slices.Clone(cfg.Keywords)
		cfg.WebhookVariables = slices.Clone(cfg.WebhookVariables)
		return cfg
	case MessageConfig:
		cfg.Buttons = slices.Clone(cfg.Buttons)
		cfg.Attachments = slices.Clone(cfg.Attachments)
		cfg.Variables = slices.Clone(cfg.Variables)
		return cfg
	case ConditionConfig:
		cfg.Rules = slices.Clone(cfg.Rules)
		return cfg
	case APICallConfig:
		cfg.Headers = maps.Clone(cfg.Headers)
		return cfg
	case WebhookConfig:
		cfg.Headers = maps.Clone(cfg.Headers)
		return cfg
	case CustomActionConfig:
		cfg.Params = maps.Clone(cfg.Params)
		return cfg
	default:
		return config
	}
}

// refreshConnections recomputes the derived plain-successor view for one step.
func (g *Graph) refreshConnections(stepID string) {
	step, ok := g.steps[stepID]
	if !ok {
		return
	}
	step.Connections = step.Connections[:0]
	for _, e := range g.edges {
		if e.From == stepID && e.FromButton == nil {
			step.Connections = append(step.Connections, e.To)
		}
	}
}

func (g *Graph) refreshAllConnections() {
	for id := range g.steps {
		g.refreshConnections(id)
	}
}
