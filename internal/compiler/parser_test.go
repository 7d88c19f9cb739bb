package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/domain"
)

func TestParser_MessageConfig(t *testing.T) {
	p := NewParser()

	cfg, err := p.ParseConfig(domain.StepTypeMessage, map[string]any{
		"text":      "Hi {{name}}",
		"variables": []any{"order_number"},
		"buttons": []any{
			map[string]any{"text": "Track", "type": "automation", "connected_to": "track"},
		},
	})
	require.NoError(t, err)

	msg, ok := cfg.(domain.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "Hi {{name}}", msg.Text)
	assert.Equal(t, []string{"order_number"}, msg.Variables)
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, domain.ButtonAutomation, msg.Buttons[0].Type)
	assert.Equal(t, "track", msg.Buttons[0].ConnectedTo)
}

func TestParser_DelaySecondsFromJSONNumber(t *testing.T) {
	p := NewParser()

	// JSON unmarshals numbers as float64; the decoder must coerce.
	cfg, err := p.ParseConfig(domain.StepTypeDelay, map[string]any{"seconds": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, domain.DelayConfig{Seconds: 2}, cfg)
}

func TestParser_ConditionPreservesPaths(t *testing.T) {
	p := NewParser()

	cfg, err := p.ParseConfig(domain.StepTypeCondition, map[string]any{
		"rules":      []any{map[string]any{"op": "contains", "value": "order"}},
		"true_path":  "yes",
		"false_path": "no",
	})
	require.NoError(t, err)

	cond, ok := cfg.(domain.ConditionConfig)
	require.True(t, ok)
	require.Len(t, cond.Rules, 1)
	assert.Equal(t, domain.OpContains, cond.Rules[0].Op)
	assert.Equal(t, "yes", cond.TruePath)
	assert.Equal(t, "no", cond.FalsePath)
}

func TestParser_NilConfigYieldsZeroVariant(t *testing.T) {
	p := NewParser()

	cfg, err := p.ParseConfig(domain.StepTypeMessage, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageConfig{}, cfg)
}

func TestParser_UnknownType(t *testing.T) {
	p := NewParser()
	_, err := p.ParseConfig(domain.StepType("teleport"), nil)
	assert.Error(t, err)
}
