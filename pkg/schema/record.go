package schema

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mehdry/flowline/internal/compiler"
	"github.com/mehdry/flowline/pkg/domain"
)

// Status values for a persisted automation.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// StepRecord is the persisted form of one step. Config stays a raw map here;
// typed decoding happens when the record is compiled into a graph.
type StepRecord struct {
	ID              string          `json:"id" yaml:"id"`
	Type            domain.StepType `json:"type" yaml:"type"`
	Title           string          `json:"title,omitempty" yaml:"title,omitempty"`
	Config          map[string]any  `json:"config,omitempty" yaml:"config,omitempty"`
	TriggerKeywords string          `json:"trigger_keywords,omitempty" yaml:"trigger_keywords,omitempty"`
	Connections     []string        `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// EdgeRecord is the persisted form of one edge.
type EdgeRecord struct {
	From       string `json:"from" yaml:"from"`
	To         string `json:"to" yaml:"to"`
	FromButton *int   `json:"from_button,omitempty" yaml:"from_button,omitempty"`
}

// Automation is the persisted automation record exchanged with a backend
// store.
type Automation struct {
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	TriggerType   string         `json:"trigger_type,omitempty" yaml:"trigger_type,omitempty"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty" yaml:"trigger_config,omitempty"`
	Workflow      []StepRecord   `json:"workflow" yaml:"workflow"`
	Connections   []EdgeRecord   `json:"connections,omitempty" yaml:"connections,omitempty"`
	Status        string         `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Compile builds the executable domain graph from the record.
func (a *Automation) Compile() (*domain.Graph, error) {
	parser := compiler.NewParser()
	g := domain.NewGraph()

	for _, rec := range a.Workflow {
		cfg, err := parser.ParseConfig(rec.Type, rec.Config)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", rec.ID, err)
		}
		step := &domain.Step{
			ID:              rec.ID,
			Type:            rec.Type,
			Title:           rec.Title,
			Config:          cfg,
			TriggerKeywords: rec.TriggerKeywords,
		}
		if err := g.AddStep(step); err != nil {
			return nil, err
		}
	}

	for _, e := range a.Connections {
		if err := g.AddEdge(e.From, e.To, e.FromButton); err != nil {
			return nil, fmt.Errorf("automation %q: %w", a.Name, err)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Encode converts a domain graph back into a persistable record, preserving
// the existing name, description and status metadata.
func (a *Automation) Encode(g *domain.Graph) error {
	a.Workflow = a.Workflow[:0]
	for _, step := range g.Steps() {
		raw, err := configToMap(step.Config)
		if err != nil {
			return fmt.Errorf("step %q: %w", step.ID, err)
		}
		a.Workflow = append(a.Workflow, StepRecord{
			ID:              step.ID,
			Type:            step.Type,
			Title:           step.Title,
			Config:          raw,
			TriggerKeywords: step.TriggerKeywords,
			Connections:     step.Connections,
		})
	}

	a.Connections = a.Connections[:0]
	for _, e := range g.Edges() {
		a.Connections = append(a.Connections, EdgeRecord{From: e.From, To: e.To, FromButton: e.FromButton})
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// configToMap serializes a typed variant back to its raw map form.
func configToMap(cfg domain.StepConfig) (map[string]any, error) {
	if cfg == nil {
		return nil, nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// ParseJSON decodes an automation record from JSON bytes.
func ParseJSON(data []byte) (*Automation, error) {
	var a Automation
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse automation: %w", err)
	}
	return &a, nil
}

// ParseYAML decodes an automation record from YAML bytes.
func ParseYAML(data []byte) (*Automation, error) {
	var a Automation
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse automation: %w", err)
	}
	return &a, nil
}

// MarshalJSONIndent renders the record for storage or export.
func (a *Automation) MarshalJSONIndent() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}
