package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/domain"
)

func buildGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	steps := []*domain.Step{
		{ID: "t-1", Type: domain.StepTypeTrigger, Config: domain.TriggerConfig{Type: domain.TriggerKeyword}},
		{ID: "menu", Type: domain.StepTypeMessage, Title: "Main menu", Config: domain.MessageConfig{
			Text:    "Pick:",
			Buttons: []domain.Button{{Text: "Pricing", Type: domain.ButtonAutomation}},
		}},
		{ID: "wait", Type: domain.StepTypeDelay, Config: domain.DelayConfig{Seconds: 5}},
		{ID: "pricing", Type: domain.StepTypeMessage, Config: domain.MessageConfig{Text: "$9"}},
	}
	for _, s := range steps {
		require.NoError(t, g.AddStep(s))
	}
	require.NoError(t, g.AddEdge("t-1", "menu", nil))
	require.NoError(t, g.AddEdge("menu", "wait", nil))
	b0 := 0
	require.NoError(t, g.AddEdge("menu", "pricing", &b0))
	return g
}

func TestGenerateMermaid_ShapesAndEdges(t *testing.T) {
	out := GenerateMermaid(buildGraph(t), nil)

	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `t_1(("t-1"))`, "trigger renders as a circle with sanitized ID")
	assert.Contains(t, out, `menu["Main menu"]`, "title wins over ID")
	assert.Contains(t, out, `wait[["wait <br/> ⏱️ 5s"]]`)
	assert.Contains(t, out, "t_1 --> menu")
	assert.Contains(t, out, `menu -- "Pricing" --> pricing`, "button edges carry the button label")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := GenerateMermaid(buildGraph(t), &Overlay{
		VisitedSteps: []string{"t-1", "menu", "menu"},
		CurrentStep:  "wait",
	})

	assert.Contains(t, out, "classDef visited")
	assert.Contains(t, out, "class t_1 visited;")
	assert.Equal(t, 1, strings.Count(out, "class menu visited;"), "visited steps are deduplicated")
	assert.Contains(t, out, "class wait current;")
}
