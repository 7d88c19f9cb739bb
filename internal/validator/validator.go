// Package validator lints automation graphs beyond the structural checks
// the graph itself enforces: reachability from the entry point and
// per-step configuration problems a builder should fix before publishing.
package validator

import (
	"fmt"
	"strings"

	"github.com/mehdry/flowline/pkg/domain"
)

// Issue is a single finding. Warnings do not block publishing; errors do.
type Issue struct {
	StepID  string `json:"step_id,omitempty"`
	Warning bool   `json:"warning"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	sev := "error"
	if i.Warning {
		sev = "warning"
	}
	if i.StepID == "" {
		return fmt.Sprintf("%s: %s", sev, i.Message)
	}
	return fmt.Sprintf("%s: step %q: %s", sev, i.StepID, i.Message)
}

// ValidateGraph crawls the graph from its entry point and collects issues.
func ValidateGraph(g *domain.Graph) []Issue {
	var issues []Issue

	if err := g.Validate(); err != nil {
		issues = append(issues, Issue{Message: err.Error()})
	}

	trigger := g.TriggerStep()
	if trigger == nil {
		issues = append(issues, Issue{
			Warning: true,
			Message: "no trigger step: the automation can never match an inbound message",
		})
	}

	for _, step := range g.Steps() {
		issues = append(issues, lintStep(g, step)...)
	}

	issues = append(issues, unreachable(g, trigger)...)
	return issues
}

// Check returns an error when any blocking issue exists.
func Check(g *domain.Graph) error {
	var blocking []string
	for _, issue := range ValidateGraph(g) {
		if !issue.Warning {
			blocking = append(blocking, issue.String())
		}
	}
	if len(blocking) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(blocking), strings.Join(blocking, "\n- "))
	}
	return nil
}

func lintStep(g *domain.Graph, step *domain.Step) []Issue {
	var issues []Issue

	switch cfg := step.Config.(type) {
	case domain.MessageConfig:
		if strings.TrimSpace(cfg.Text) == "" {
			issues = append(issues, Issue{StepID: step.ID, Warning: true, Message: "message has no text"})
		}
		for i, btn := range cfg.Buttons {
			if btn.Type == domain.ButtonAutomation && len(g.Successors(step.ID, intPtr(i))) == 0 {
				issues = append(issues, Issue{
					StepID: step.ID, Warning: true,
					Message: fmt.Sprintf("automation button %d (%q) has no connection; clicks will replay as messages", i, btn.Text),
				})
			}
			if btn.Type == domain.ButtonLink && btn.URL == "" {
				issues = append(issues, Issue{StepID: step.ID, Message: fmt.Sprintf("link button %d has no URL", i)})
			}
			if btn.Type == domain.ButtonPhone && btn.Phone == "" {
				issues = append(issues, Issue{StepID: step.ID, Message: fmt.Sprintf("phone button %d has no number", i)})
			}
		}
	case domain.ConditionConfig:
		if len(cfg.Rules) == 0 {
			issues = append(issues, Issue{StepID: step.ID, Warning: true, Message: "condition has no rules"})
		}
		for i, rule := range cfg.Rules {
			switch rule.Op {
			case domain.OpContains, domain.OpEquals, domain.OpStartsWith:
			default:
				issues = append(issues, Issue{StepID: step.ID, Message: fmt.Sprintf("rule %d has unknown operator %q", i, rule.Op)})
			}
		}
	case domain.DelayConfig:
		if cfg.Seconds < 0 {
			issues = append(issues, Issue{StepID: step.ID, Message: "delay is negative"})
		}
	case domain.APICallConfig:
		if cfg.URL == "" {
			issues = append(issues, Issue{StepID: step.ID, Message: "api_call has no URL"})
		}
	case domain.WebhookConfig:
		if cfg.URL == "" {
			issues = append(issues, Issue{StepID: step.ID, Message: "webhook has no URL"})
		}
	case domain.DataInputConfig:
		if strings.TrimSpace(cfg.Prompt) == "" {
			issues = append(issues, Issue{StepID: step.ID, Warning: true, Message: "data_input has no prompt"})
		}
	}
	return issues
}

// unreachable crawls forward from the trigger and reports steps no edge
// leads to. Without a trigger, every step is reported reachable to avoid
// drowning a draft in noise.
func unreachable(g *domain.Graph, trigger *domain.Step) []Issue {
	if trigger == nil {
		return nil
	}

	visited := make(map[string]bool)
	queue := []string{trigger.ID}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		for _, edge := range g.Edges() {
			if edge.From == currentID && !visited[edge.To] {
				queue = append(queue, edge.To)
			}
		}
	}

	var issues []Issue
	for _, step := range g.Steps() {
		if !visited[step.ID] {
			issues = append(issues, Issue{
				StepID: step.ID, Warning: true,
				Message: "unreachable from the trigger",
			})
		}
	}
	return issues
}

func intPtr(v int) *int { return &v }
