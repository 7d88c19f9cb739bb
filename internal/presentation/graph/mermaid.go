package graph

import (
	"fmt"
	"strings"

	"github.com/mehdry/flowline/pkg/domain"
)

// Overlay contains dynamic run state to visualize on the graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces Mermaid flowchart syntax for an automation graph.
// Semantic shapes:
//   - trigger: ((circle))
//   - condition: {diamond}
//   - data_input: [/parallelogram/]
//   - delay, api_call, webhook: [[subroutine]]
//   - everything else: [rectangle]
//
// Button edges are labeled with the button slot; an overlay highlights
// visited and current steps of a run.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range g.Steps() {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch step.Type {
		case domain.StepTypeTrigger:
			opener, closer = "((", "))"
		case domain.StepTypeCondition:
			opener, closer = "{", "}"
		case domain.StepTypeDataInput:
			opener, closer = "[/", "/]"
		case domain.StepTypeDelay, domain.StepTypeAPICall, domain.StepTypeWebhook:
			opener, closer = "[[", "]]"
		}

		label := step.Title
		if label == "" {
			label = step.ID
		}
		if cfg, ok := step.Config.(domain.DelayConfig); ok && cfg.Seconds > 0 {
			label = fmt.Sprintf("%s <br/> ⏱️ %ds", label, cfg.Seconds)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeMermaidLabel(label), closer))
	}

	for _, edge := range g.Edges() {
		safeFrom := sanitizeMermaidID(edge.From)
		safeTo := sanitizeMermaidID(edge.To)

		arrow := "-->"
		if edge.FromButton != nil {
			label := fmt.Sprintf("button %d", *edge.FromButton)
			if step := g.Step(edge.From); step != nil {
				if cfg, ok := step.Message(); ok && *edge.FromButton < len(cfg.Buttons) {
					label = cfg.Buttons[*edge.FromButton].Text
				}
			}
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeMermaidLabel(label))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
		}
	}

	return sb.String()
}

func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
