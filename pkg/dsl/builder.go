package dsl

import (
	"fmt"

	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/schema"
)

// Builder manages the graph construction. Steps are kept in insertion
// order so the built graph walks deterministically.
type Builder struct {
	name  string
	order []string
	steps map[string]*StepBuilder
	edges []edge
}

type edge struct {
	from, to string
	button   *int
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		steps: make(map[string]*StepBuilder),
	}
}

func (b *Builder) add(id string, stepType domain.StepType) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		id:       id,
		stepType: stepType,
		builder:  b,
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Trigger creates a trigger step.
func (b *Builder) Trigger(id string) *StepBuilder {
	sb := b.add(id, domain.StepTypeTrigger)
	if sb.trigger == nil {
		sb.trigger = &domain.TriggerConfig{Type: domain.TriggerKeyword}
	}
	return sb
}

// Message creates a message step.
func (b *Builder) Message(id string) *StepBuilder {
	return b.add(id, domain.StepTypeMessage)
}

// AIResponse creates an ai_response step.
func (b *Builder) AIResponse(id string) *StepBuilder {
	return b.add(id, domain.StepTypeAIResponse)
}

// Condition creates a condition step.
func (b *Builder) Condition(id string) *StepBuilder {
	return b.add(id, domain.StepTypeCondition)
}

// DataInput creates a data_input step.
func (b *Builder) DataInput(id string) *StepBuilder {
	return b.add(id, domain.StepTypeDataInput)
}

// APICall creates an api_call step.
func (b *Builder) APICall(id string) *StepBuilder {
	return b.add(id, domain.StepTypeAPICall)
}

// Webhook creates a webhook step.
func (b *Builder) Webhook(id string) *StepBuilder {
	return b.add(id, domain.StepTypeWebhook)
}

// Delay creates a delay step.
func (b *Builder) Delay(id string) *StepBuilder {
	return b.add(id, domain.StepTypeDelay)
}

// CustomAction creates a custom_action step.
func (b *Builder) CustomAction(id string) *StepBuilder {
	return b.add(id, domain.StepTypeCustomAction)
}

// Connect adds a plain edge between two steps.
func (b *Builder) Connect(from, to string) *Builder {
	b.edges = append(b.edges, edge{from: from, to: to})
	return b
}

// Build compiles the accumulated steps and edges into a graph.
func (b *Builder) Build() (*domain.Graph, error) {
	g := domain.NewGraph()

	for _, id := range b.order {
		sb := b.steps[id]
		step, err := sb.step()
		if err != nil {
			return nil, err
		}
		if err := g.AddStep(step); err != nil {
			return nil, err
		}
	}

	for _, e := range b.edges {
		if err := g.AddEdge(e.from, e.to, e.button); err != nil {
			return nil, fmt.Errorf("graph %q: %w", b.name, err)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph %q: %w", b.name, err)
	}
	return g, nil
}

// Record builds the graph and encodes it as a persistable automation record.
func (b *Builder) Record() (*schema.Automation, error) {
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	record := &schema.Automation{Name: b.name}
	if err := record.Encode(g); err != nil {
		return nil, err
	}
	return record, nil
}
