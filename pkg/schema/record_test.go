package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/domain"
)

const sampleJSON = `{
  "name": "order-updates",
  "description": "Keyword-triggered order flow",
  "trigger_type": "keyword",
  "status": "active",
  "workflow": [
    {"id": "t1", "type": "trigger", "config": {"type": "keyword", "keywords": ["order", "status"]}},
    {"id": "m1", "type": "message", "config": {"text": "Hi {{name}}, checking order {{1}}", "variables": ["order_number"],
      "buttons": [{"text": "Track it", "type": "automation", "connected_to": "m2"}]}},
    {"id": "d1", "type": "delay", "config": {"seconds": 2}},
    {"id": "m2", "type": "message", "config": {"text": "Done!"}}
  ],
  "connections": [
    {"from": "t1", "to": "m1"},
    {"from": "m1", "to": "d1"},
    {"from": "m1", "to": "m2", "from_button": 0},
    {"from": "d1", "to": "m2"}
  ]
}`

func TestAutomation_CompileFromJSON(t *testing.T) {
	a, err := ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	g, err := a.Compile()
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	trig, ok := g.Step("t1").Trigger()
	require.True(t, ok)
	assert.Equal(t, domain.TriggerKeyword, trig.Type)
	assert.Equal(t, []string{"order", "status"}, trig.Keywords)

	msg, ok := g.Step("m1").Message()
	require.True(t, ok)
	assert.Equal(t, []string{"order_number"}, msg.Variables)
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, domain.ButtonAutomation, msg.Buttons[0].Type)
	assert.Equal(t, "m2", msg.Buttons[0].ConnectedTo)

	// Derived plain-successor view matches the edge list.
	assert.Equal(t, []string{"m1"}, g.Step("t1").Connections)
}

func TestAutomation_RoundTrip(t *testing.T) {
	a, err := ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)

	g, err := a.Compile()
	require.NoError(t, err)

	out := &Automation{Name: a.Name, Description: a.Description, Status: a.Status}
	require.NoError(t, out.Encode(g))

	data, err := json.Marshal(out)
	require.NoError(t, err)

	back, err := ParseJSON(data)
	require.NoError(t, err)
	g2, err := back.Compile()
	require.NoError(t, err)

	// Identical step ids, configs and edges after the round trip.
	require.Equal(t, g.Len(), g2.Len())
	for _, step := range g.Steps() {
		other := g2.Step(step.ID)
		require.NotNil(t, other, "step %s lost in round trip", step.ID)
		assert.Equal(t, step.Type, other.Type)
		assert.Equal(t, step.Config, other.Config)
	}
	assert.ElementsMatch(t, g.Edges(), g2.Edges())
}

func TestAutomation_CompileRejectsDanglingEdge(t *testing.T) {
	a := &Automation{
		Name: "broken",
		Workflow: []StepRecord{
			{ID: "a", Type: domain.StepTypeMessage},
		},
		Connections: []EdgeRecord{{From: "a", To: "ghost"}},
	}
	assert.Error(t, a.Validate())

	_, err := a.Compile()
	assert.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestAutomation_ParseYAML(t *testing.T) {
	src := []byte(`
name: yaml-flow
workflow:
  - id: t1
    type: trigger
    config:
      type: exact_match
      match_text: Hello
  - id: m1
    type: message
    config:
      text: Hey there
connections:
  - from: t1
    to: m1
`)
	a, err := ParseYAML(src)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	g, err := a.Compile()
	require.NoError(t, err)
	trig, ok := g.Step("t1").Trigger()
	require.True(t, ok)
	assert.Equal(t, domain.TriggerExactMatch, trig.Type)
	assert.Equal(t, "Hello", trig.MatchText)
}

func TestAutomation_ValidateStatus(t *testing.T) {
	a := &Automation{Name: "x", Status: "running"}
	assert.Error(t, a.Validate())
	a.Status = StatusPaused
	assert.NoError(t, a.Validate())
}
