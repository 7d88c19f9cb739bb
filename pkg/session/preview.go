package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mehdry/flowline/internal/runtime"
	"github.com/mehdry/flowline/pkg/domain"
)

// Direction of a transcript entry.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// TranscriptEntry is one line of the simulated chat.
type TranscriptEntry struct {
	Direction Direction      `json:"direction"`
	Text      string         `json:"text"`
	Effect    *domain.Effect `json:"effect,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Latency computes the cosmetic "typing" pause shown before an outbound
// effect. It is purely pacing for the person watching the preview, not a
// concurrency primitive.
type Latency func(effect domain.Effect) time.Duration

// DefaultLatency jitters between 400ms and 1s.
func DefaultLatency(domain.Effect) time.Duration {
	return 400*time.Millisecond + time.Duration(rand.Int63n(int64(600*time.Millisecond)))
}

// NoLatency disables pacing; used by tests and non-interactive contexts.
func NoLatency(domain.Effect) time.Duration { return 0 }

// Preview is a builder-time simulated conversation against one automation
// graph. It is safe for use from a single goroutine per conversation;
// distinct previews are fully independent.
type Preview struct {
	engine *runtime.Engine
	graph  *domain.Graph

	recipient string
	contact   *domain.Contact
	values    map[string]string
	extra     map[string]string

	latency Latency
	sleep   func(time.Duration)
	clock   func() time.Time

	mu         sync.Mutex
	sessionID  string
	pending    *domain.RunState
	transcript []TranscriptEntry
}

// PreviewOption configures a Preview.
type PreviewOption func(*Preview)

// WithRecipient sets the simulated recipient and optional contact record.
func WithRecipient(recipient string, contact *domain.Contact) PreviewOption {
	return func(p *Preview) {
		p.recipient = recipient
		p.contact = contact
	}
}

// WithValues supplies named values for positional template tokens.
func WithValues(values map[string]string) PreviewOption {
	return func(p *Preview) {
		p.values = values
	}
}

// WithIntegrationVariables supplies integration-event variables.
func WithIntegrationVariables(extra map[string]string) PreviewOption {
	return func(p *Preview) {
		p.extra = extra
	}
}

// WithLatency overrides the typing-latency function.
func WithLatency(l Latency) PreviewOption {
	return func(p *Preview) {
		if l != nil {
			p.latency = l
		}
	}
}

// WithSleeper overrides how pauses are performed; tests inject a no-op.
func WithSleeper(sleep func(time.Duration)) PreviewOption {
	return func(p *Preview) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// NewPreview creates a simulated conversation. The graph is snapshotted:
// builder edits after this point do not affect the running preview.
func NewPreview(engine *runtime.Engine, g *domain.Graph, opts ...PreviewOption) *Preview {
	p := &Preview{
		engine:    engine,
		graph:     g.Snapshot(),
		recipient: "+15550000000",
		latency:   DefaultLatency,
		sleep:     time.Sleep,
		clock:     time.Now,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionID returns the identifier of this simulated conversation.
func (p *Preview) SessionID() string { return p.sessionID }

// Transcript returns a copy of the conversation so far.
func (p *Preview) Transcript() []TranscriptEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TranscriptEntry(nil), p.transcript...)
}

func (p *Preview) varContext() domain.VariableContext {
	return domain.VariableContext{
		Recipient: p.recipient,
		Contact:   p.contact,
		Values:    p.values,
		Extra:     p.extra,
	}
}

// SendMessage feeds one simulated inbound message through the matcher and
// executor, appending the inbound line and every resulting effect to the
// transcript. Delay suspensions are played out inline with a simple timer,
// which is acceptable in the preview context.
func (p *Preview) SendMessage(ctx context.Context, text string) ([]TranscriptEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendLocked(ctx, text)
}

func (p *Preview) sendLocked(ctx context.Context, text string) ([]TranscriptEntry, error) {
	start := len(p.transcript)
	p.transcript = append(p.transcript, TranscriptEntry{
		Direction: Inbound,
		Text:      text,
		Timestamp: p.clock(),
	})

	var (
		effects []domain.Effect
		state   *domain.RunState
		err     error
	)
	if p.pending != nil && p.pending.Status == domain.StatusAwaitingInput {
		effects, state, err = p.engine.ContinueWithAnswer(ctx, p.graph, p.pending, text, p.varContext())
	} else {
		effects, state, err = p.engine.HandleInbound(ctx, p.graph, p.sessionID, text, p.varContext())
	}

	if errors.Is(err, domain.ErrNoEntryPoint) {
		p.appendEffect(domain.Effect{
			Type: domain.EffectStatus,
			Text: "No automation matched this message.",
		})
		return p.transcript[start:], nil
	}
	p.appendEffects(effects)
	if err != nil {
		p.appendEffect(domain.Effect{
			Type: domain.EffectStatus,
			Text: fmt.Sprintf("Automation stopped: %v", err),
		})
		p.pending = nil
		return p.transcript[start:], err
	}

	state, err = p.playDelays(ctx, state)
	p.rememberState(state)
	return p.transcript[start:], err
}

// playDelays resolves waiting_delay suspensions inline: pause, resume,
// append, repeat.
func (p *Preview) playDelays(ctx context.Context, state *domain.RunState) (*domain.RunState, error) {
	for state != nil && state.Status == domain.StatusWaitingDelay {
		p.sleep(time.Until(state.ResumeAt))

		effects, next, err := p.engine.Resume(ctx, p.graph, state, p.varContext())
		p.appendEffects(effects)
		if err != nil {
			p.appendEffect(domain.Effect{
				Type: domain.EffectStatus,
				Text: fmt.Sprintf("Automation stopped: %v", err),
			})
			return nil, err
		}
		state = next
	}
	return state, nil
}

func (p *Preview) rememberState(state *domain.RunState) {
	if state != nil && state.Status == domain.StatusAwaitingInput {
		p.pending = state
		return
	}
	p.pending = nil
}

// ClickButton activates an interactive button on a previously rendered
// message effect. A button edge, when present, is the continuation; link
// and phone buttons are terminal; otherwise the click replays as a fresh
// inbound message equal to the button's label.
func (p *Preview) ClickButton(ctx context.Context, stepID string, button int) ([]TranscriptEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	step := p.graph.Step(stepID)
	if step == nil {
		return nil, fmt.Errorf("button source %q: %w", stepID, domain.ErrStepNotFound)
	}
	cfg, ok := step.Message()
	if !ok || button < 0 || button >= len(cfg.Buttons) {
		return nil, fmt.Errorf("step %q has no button %d", stepID, button)
	}
	btn := cfg.Buttons[button]
	if btn.Type != domain.ButtonAutomation {
		// Rendered only; nothing to execute.
		start := len(p.transcript)
		p.appendEffect(domain.Effect{
			Type:   domain.EffectStatus,
			StepID: stepID,
			Text:   fmt.Sprintf("Button %q is a %s button; nothing to run.", btn.Text, btn.Type),
		})
		return p.transcript[start:], nil
	}

	if edges := p.graph.Successors(stepID, &button); len(edges) > 0 {
		start := len(p.transcript)
		p.transcript = append(p.transcript, TranscriptEntry{
			Direction: Inbound,
			Text:      btn.Text,
			Timestamp: p.clock(),
		})
		effects, state, err := p.engine.RunFrom(ctx, p.graph, p.sessionID, edges[0].To, btn.Text, p.varContext())
		p.appendEffects(effects)
		if err != nil {
			return p.transcript[start:], err
		}
		state, err = p.playDelays(ctx, state)
		p.rememberState(state)
		return p.transcript[start:], err
	}

	// No edge: the click re-enters the matcher as a new inbound message.
	return p.sendLocked(ctx, btn.Text)
}

func (p *Preview) appendEffects(effects []domain.Effect) {
	for _, effect := range effects {
		p.sleep(p.latency(effect))
		p.appendEffect(effect)
	}
}

func (p *Preview) appendEffect(effect domain.Effect) {
	e := effect
	p.transcript = append(p.transcript, TranscriptEntry{
		Direction: Outbound,
		Text:      effect.Text,
		Effect:    &e,
		Timestamp: p.clock(),
	})
}
