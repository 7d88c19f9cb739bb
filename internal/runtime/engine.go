// Package runtime implements the step-execution interpreter: it matches
// inbound messages against a graph's trigger, walks edges one step at a
// time and yields ordered outbound effects, suspending at delay steps.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mehdry/flowline/pkg/domain"
	"github.com/mehdry/flowline/pkg/ports"
	"github.com/mehdry/flowline/pkg/vars"
)

// Engine is the core interpreter. It is stateless: every call works against
// an immutable graph snapshot plus an explicit RunState, so distinct
// conversations can execute concurrently with no shared mutable state.
type Engine struct {
	resolver  *vars.Resolver
	responder ports.AIResponder
	caller    ports.HTTPCaller
	actions   ports.ActionRunner
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	maxSteps    int
	live        bool
	legacyEntry bool
}

// NewEngine creates an executor with the given options.
func NewEngine(opts ...EngineOption) *Engine {
	e := defaultEngine()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleInbound runs one inbound message through the matcher and, on a
// match, walks the graph from every entry point in order. It returns the
// ordered effects, the final run state, and an error only for fatal
// conditions (graph integrity, loop guard). A message that matches nothing
// returns domain.ErrNoEntryPoint.
func (e *Engine) HandleInbound(ctx context.Context, g *domain.Graph, sessionID, message string, vc domain.VariableContext) ([]domain.Effect, *domain.RunState, error) {
	res := e.Match(g, message)
	if !res.Triggered && len(res.Entries) == 0 {
		e.logger.Debug("no entry point for message", "session", sessionID)
		return nil, nil, domain.ErrNoEntryPoint
	}

	if len(res.Entries) == 0 {
		// Trigger matched but nothing is wired behind it.
		state := domain.NewRunState(sessionID, "")
		state.Status = domain.StatusTerminated
		effect := domain.Effect{
			Type: domain.EffectStatus,
			Text: "Automation triggered, but no steps are configured yet.",
		}
		e.emitEffect(ctx, sessionID, &effect)
		return []domain.Effect{effect}, state, nil
	}

	var effects []domain.Effect
	state := domain.NewRunState(sessionID, res.Entries[0])
	for i, entry := range res.Entries {
		if i > 0 {
			state = domain.NewRunState(sessionID, entry)
		}
		walked, err := e.walk(ctx, g, state, message, vc)
		effects = append(effects, walked...)
		if err != nil {
			return effects, state, err
		}
		if state.Status == domain.StatusWaitingDelay || state.Status == domain.StatusAwaitingInput {
			// A suspension ends this inbound's processing; remaining entry
			// points are dropped rather than interleaved.
			break
		}
	}
	return effects, state, nil
}

// RunFrom starts a walk at an explicit step, bypassing the matcher. Used for
// button-edge continuations and externally invoked triggers.
func (e *Engine) RunFrom(ctx context.Context, g *domain.Graph, sessionID, stepID, message string, vc domain.VariableContext) ([]domain.Effect, *domain.RunState, error) {
	state := domain.NewRunState(sessionID, stepID)
	effects, err := e.walk(ctx, g, state, message, vc)
	return effects, state, err
}

// Resume continues a run parked at a delay step.
func (e *Engine) Resume(ctx context.Context, g *domain.Graph, state *domain.RunState, vc domain.VariableContext) ([]domain.Effect, *domain.RunState, error) {
	if state.Status != domain.StatusWaitingDelay {
		return nil, state, fmt.Errorf("cannot resume run in status %q", state.Status)
	}
	next := state.Clone()
	next.Status = domain.StatusActive
	next.CurrentStepID = next.ResumeStepID
	next.ResumeStepID = ""
	next.ResumeAt = time.Time{}

	effects, err := e.walk(ctx, g, next, "", vc)
	return effects, next, err
}

// ContinueWithAnswer feeds the next inbound message into a run that is
// awaiting a data_input field, then continues the walk.
func (e *Engine) ContinueWithAnswer(ctx context.Context, g *domain.Graph, state *domain.RunState, answer string, vc domain.VariableContext) ([]domain.Effect, *domain.RunState, error) {
	if state.Status != domain.StatusAwaitingInput {
		return nil, state, fmt.Errorf("cannot answer run in status %q", state.Status)
	}
	next := state.Clone()
	if next.AwaitingField != "" {
		next.Context[next.AwaitingField] = answer
	}
	next.AwaitingField = ""
	next.Status = domain.StatusActive
	if next.CurrentStepID == "" {
		next.Status = domain.StatusTerminated
		return nil, next, nil
	}

	effects, err := e.walk(ctx, g, next, answer, vc)
	return effects, next, err
}

// walk advances the state machine one step at a time until termination or a
// suspension point. It mutates state in place and returns ordered effects.
func (e *Engine) walk(ctx context.Context, g *domain.Graph, state *domain.RunState, message string, vc domain.VariableContext) ([]domain.Effect, error) {
	vc = mergeContext(state, vc)

	var effects []domain.Effect
	emit := func(effect domain.Effect) {
		e.emitEffect(ctx, state.SessionID, &effect)
		effects = append(effects, effect)
	}

	for state.Status == domain.StatusActive {
		stepID := state.CurrentStepID
		if stepID == "" {
			state.Status = domain.StatusTerminated
			break
		}

		step := g.Step(stepID)
		if step == nil {
			state.Status = domain.StatusFailed
			return effects, fmt.Errorf("run %s references missing step %q: %w", state.SessionID, stepID, domain.ErrStepNotFound)
		}

		if state.Seen(stepID) || state.StepsTaken >= e.maxSteps {
			state.Status = domain.StatusFailed
			e.logger.Warn("automation loop detected", "session", state.SessionID, "step", stepID, "steps_taken", state.StepsTaken)
			return effects, &domain.LoopError{StepID: stepID, StepsTaken: state.StepsTaken}
		}
		state.Visited = append(state.Visited, stepID)
		state.StepsTaken++

		e.emitStepEnter(ctx, state.SessionID, step)
		next := e.firstPlainSuccessor(g, stepID)

		switch step.Type {
		case domain.StepTypeTrigger:
			// Entry bookkeeping only; a trigger mid-walk produces nothing.

		case domain.StepTypeMessage:
			emit(e.renderMessage(step, vc))

		case domain.StepTypeAIResponse:
			emit(e.renderAIResponse(ctx, step, state, message, vc))

		case domain.StepTypeCondition:
			emit(e.renderCondition(step, message))

		case domain.StepTypeDataInput:
			cfg, _ := step.Config.(domain.DataInputConfig)
			field := cfg.Field
			if field == "" {
				field = "response"
			}
			prompt := e.resolver.Resolve(cfg.Prompt, vc)
			if prompt == "" {
				prompt = "Please provide: " + field
			}
			emit(domain.Effect{Type: domain.EffectPrompt, StepID: stepID, Text: prompt, Field: field})

			state.AwaitingField = field
			state.Status = domain.StatusAwaitingInput
			state.CurrentStepID = next
			e.emitStepLeave(ctx, state.SessionID, step)
			return effects, nil

		case domain.StepTypeDelay:
			cfg, _ := step.Config.(domain.DelayConfig)
			seconds := cfg.Seconds
			if seconds < 0 {
				seconds = 0
			}
			emit(domain.Effect{
				Type:         domain.EffectDelay,
				StepID:       stepID,
				Text:         fmt.Sprintf("Waiting %d seconds...", seconds),
				DelaySeconds: seconds,
			})

			e.emitDelayScheduled(ctx, state.SessionID, stepID, time.Duration(seconds)*time.Second)
			e.emitStepLeave(ctx, state.SessionID, step)

			if next == "" {
				state.Status = domain.StatusTerminated
				return effects, nil
			}
			state.Status = domain.StatusWaitingDelay
			state.ResumeStepID = next
			state.ResumeAt = time.Now().Add(time.Duration(seconds) * time.Second)
			return effects, nil

		case domain.StepTypeAPICall, domain.StepTypeWebhook:
			emit(e.renderHTTPStep(ctx, step, vc))

		case domain.StepTypeCustomAction:
			cfg, _ := step.Config.(domain.CustomActionConfig)
			label := cfg.Action
			if label == "" {
				label = step.Title
			}
			if e.actions == nil {
				emit(domain.Effect{
					Type:   domain.EffectStatus,
					StepID: stepID,
					Text:   fmt.Sprintf("Custom action %q is not executed in preview.", label),
				})
				break
			}
			out, err := e.actions.Run(ctx, cfg.Action, cfg.Params)
			if err != nil {
				e.logger.Warn("custom action failed", "session", state.SessionID, "step", stepID, "action", cfg.Action, "error", err)
				emit(domain.Effect{
					Type:   domain.EffectStatus,
					StepID: stepID,
					Text:   fmt.Sprintf("Custom action %q failed: %v", label, err),
				})
				break
			}
			text := fmt.Sprintf("Custom action %q completed.", label)
			if out != "" {
				text = fmt.Sprintf("Custom action %q: %s", label, out)
			}
			emit(domain.Effect{Type: domain.EffectStatus, StepID: stepID, Text: text})

		case domain.StepTypeBranch:
			emit(domain.Effect{Type: domain.EffectStatus, StepID: stepID, Text: "Branch step reached."})

		default:
			emit(domain.Effect{
				Type:   domain.EffectStatus,
				StepID: stepID,
				Text:   fmt.Sprintf("Step type %q is not supported; skipping.", step.Type),
			})
		}

		e.emitStepLeave(ctx, state.SessionID, step)

		if next == "" {
			state.Status = domain.StatusTerminated
			break
		}
		state.CurrentStepID = next
	}

	return effects, nil
}

func (e *Engine) renderMessage(step *domain.Step, vc domain.VariableContext) domain.Effect {
	cfg, _ := step.Config.(domain.MessageConfig)
	if strings.TrimSpace(cfg.Text) == "" && len(cfg.Attachments) == 0 {
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   "This message step has no content configured.",
		}
	}

	return domain.Effect{
		Type:        domain.EffectMessage,
		StepID:      step.ID,
		Text:        e.resolver.ResolveTemplate(cfg.Text, cfg.Variables, vc),
		Attachments: cfg.Attachments,
		Buttons:     cfg.Buttons,
	}
}

func (e *Engine) renderAIResponse(ctx context.Context, step *domain.Step, state *domain.RunState, message string, vc domain.VariableContext) domain.Effect {
	cfg, _ := step.Config.(domain.AIResponseConfig)

	fallback := cfg.FallbackText
	if fallback == "" {
		fallback = "Sorry, I couldn't generate a response right now. Please try again later."
	}

	if e.responder == nil {
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   "AI response step: no response service configured.",
		}
	}

	resp, err := e.responder.Respond(ctx, domain.AIRequest{
		Message:      message,
		SystemPrompt: cfg.SystemPrompt,
		ContextData:  cfg.ContextData,
		Tone:         cfg.Tone,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		RecipientID:  vc.Recipient,
		AutomationID: state.SessionID,
	})
	if err != nil {
		e.logger.Warn("AI response service failed", "session", state.SessionID, "err", err)
		return domain.Effect{Type: domain.EffectAIResponse, StepID: step.ID, Text: fallback}
	}
	if resp.RateLimited {
		return domain.Effect{
			Type:   domain.EffectAIResponse,
			StepID: step.ID,
			Text:   "The AI assistant is handling a lot of requests right now. Please try again in a moment.",
		}
	}
	if !resp.Success || resp.ResponseText == "" {
		return domain.Effect{Type: domain.EffectAIResponse, StepID: step.ID, Text: fallback}
	}
	return domain.Effect{Type: domain.EffectAIResponse, StepID: step.ID, Text: resp.ResponseText}
}

func (e *Engine) renderCondition(step *domain.Step, message string) domain.Effect {
	cfg, _ := step.Config.(domain.ConditionConfig)
	if len(cfg.Rules) == 0 {
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   "Condition step has no rules configured.",
		}
	}

	lowered := strings.ToLower(message)
	matched := false
	for _, rule := range cfg.Rules {
		value := strings.ToLower(rule.Value)
		switch rule.Op {
		case domain.OpContains:
			matched = strings.Contains(lowered, value)
		case domain.OpEquals:
			matched = strings.TrimSpace(lowered) == strings.TrimSpace(value)
		case domain.OpStartsWith:
			matched = strings.HasPrefix(lowered, value)
		default:
			return domain.Effect{
				Type:   domain.EffectStatus,
				StepID: step.ID,
				Text:   fmt.Sprintf("Condition rule has unknown operator %q.", rule.Op),
			}
		}
		if matched {
			break
		}
	}

	// The walk itself does not fork; true_path/false_path are recorded in
	// the config but routing on them is deliberately not implemented.
	if matched {
		return domain.Effect{Type: domain.EffectStatus, StepID: step.ID, Text: "Condition matched."}
	}
	return domain.Effect{Type: domain.EffectStatus, StepID: step.ID, Text: "Condition did not match."}
}

func (e *Engine) renderHTTPStep(ctx context.Context, step *domain.Step, vc domain.VariableContext) domain.Effect {
	url, method, headers, body := httpShape(step.Config)
	url = e.resolver.Resolve(url, vc)
	body = e.resolver.Resolve(body, vc)

	if url == "" {
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   fmt.Sprintf("%s step has no URL configured.", step.Type),
		}
	}

	if !e.live || e.caller == nil {
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   fmt.Sprintf("Simulated %s %s %s (preview).", step.Type, method, url),
		}
	}

	resp, err := e.caller.Call(ctx, domain.HTTPCallRequest{URL: url, Method: method, Headers: headers, Body: body})
	if err != nil {
		e.logger.Warn("http call failed", "step", step.ID, "url", url, "err", err)
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   fmt.Sprintf("%s to %s failed; continuing.", step.Type, url),
		}
	}
	if resp.Status >= 400 {
		return domain.Effect{
			Type:   domain.EffectStatus,
			StepID: step.ID,
			Text:   fmt.Sprintf("%s to %s returned status %d.", step.Type, url, resp.Status),
		}
	}
	return domain.Effect{
		Type:   domain.EffectStatus,
		StepID: step.ID,
		Text:   fmt.Sprintf("%s to %s succeeded (%d).", step.Type, url, resp.Status),
	}
}

// httpShape flattens the two HTTP-shaped config variants.
func httpShape(cfg domain.StepConfig) (url, method string, headers map[string]string, body string) {
	switch c := cfg.(type) {
	case domain.APICallConfig:
		url, method, headers, body = c.URL, c.Method, c.Headers, c.Body
		if method == "" {
			method = "GET"
		}
	case domain.WebhookConfig:
		url, method, headers, body = c.URL, c.Method, c.Headers, c.Body
		if method == "" {
			method = "POST"
		}
	}
	return url, strings.ToUpper(method), headers, body
}

func (e *Engine) firstPlainSuccessor(g *domain.Graph, stepID string) string {
	if succ := g.Successors(stepID, nil); len(succ) > 0 {
		return succ[0].To
	}
	return ""
}

func (e *Engine) emitStepEnter(ctx context.Context, sessionID string, step *domain.Step) {
	if e.hooks.OnStepEnter == nil {
		return
	}
	e.hooks.OnStepEnter(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepEnter, SessionID: sessionID},
		StepID:    step.ID,
		StepType:  step.Type,
	})
}

func (e *Engine) emitStepLeave(ctx context.Context, sessionID string, step *domain.Step) {
	if e.hooks.OnStepLeave == nil {
		return
	}
	e.hooks.OnStepLeave(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepLeave, SessionID: sessionID},
		StepID:    step.ID,
		StepType:  step.Type,
	})
}

func (e *Engine) emitEffect(ctx context.Context, sessionID string, effect *domain.Effect) {
	if e.hooks.OnEffect == nil {
		return
	}
	e.hooks.OnEffect(ctx, &domain.EffectEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventEffect, SessionID: sessionID},
		StepID:     effect.StepID,
		EffectType: effect.Type,
	})
}

func (e *Engine) emitDelayScheduled(ctx context.Context, sessionID, stepID string, d time.Duration) {
	if e.hooks.OnDelayScheduled == nil {
		return
	}
	e.hooks.OnDelayScheduled(ctx, &domain.DelayEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDelayScheduled, SessionID: sessionID},
		StepID:    stepID,
		Seconds:   d,
	})
}

// mergeContext exposes collected data_input answers to the resolver.
// Integration-supplied variables keep precedence over collected fields.
func mergeContext(state *domain.RunState, vc domain.VariableContext) domain.VariableContext {
	if len(state.Context) == 0 {
		return vc
	}
	extra := make(map[string]string, len(vc.Extra)+len(state.Context))
	for k, v := range state.Context {
		extra[k] = fmt.Sprint(v)
	}
	for k, v := range vc.Extra {
		extra[k] = v
	}
	vc.Extra = extra
	return vc
}
