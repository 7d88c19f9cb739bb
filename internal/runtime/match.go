package runtime

import (
	"strings"

	"github.com/mehdry/flowline/pkg/domain"
)

// MatchResult describes where an inbound message enters the graph.
type MatchResult struct {
	// Entries are the step IDs the walk starts from, in order.
	Entries []string

	// Triggered is true when the trigger step itself matched, even if no
	// entry step is configured behind it.
	Triggered bool
}

// Match decides whether and where an inbound message enters the graph.
//
// Priority order: declared per-step trigger keywords first, then the trigger
// step's own config. Graphs without a trigger step produce no match unless
// the legacy entry fallback is enabled.
func (e *Engine) Match(g *domain.Graph, message string) MatchResult {
	lowered := strings.ToLower(message)

	// Priority 1: explicit trigger_keywords on any step.
	declared := false
	var entries []string
	for _, step := range g.Steps() {
		if step.TriggerKeywords == "" {
			continue
		}
		declared = true
		if matchesKeywordList(lowered, step.TriggerKeywords) {
			entries = append(entries, step.ID)
		}
	}
	if declared {
		return MatchResult{Entries: entries, Triggered: len(entries) > 0}
	}

	// Priority 2: the trigger step's own config.
	if trigger := g.TriggerStep(); trigger != nil {
		cfg, _ := trigger.Trigger()
		if !e.triggerMatches(cfg, lowered) {
			return MatchResult{}
		}
		return MatchResult{Entries: e.entryAfterTrigger(g, trigger), Triggered: true}
	}

	// Priority 3: no trigger step at all. Strict mode refuses to guess.
	if !e.legacyEntry {
		return MatchResult{}
	}
	for _, step := range g.Steps() {
		if step.Type != domain.StepTypeTrigger && step.TriggerKeywords == "" {
			entries = append(entries, step.ID)
		}
	}
	return MatchResult{Entries: entries, Triggered: len(entries) > 0}
}

// MatchExternal resolves the entry for an explicitly invoked trigger
// (schedule, webhook, integration). Content-independent: it matches whenever
// the trigger step declares an external type.
func (e *Engine) MatchExternal(g *domain.Graph) MatchResult {
	trigger := g.TriggerStep()
	if trigger == nil {
		return MatchResult{}
	}
	cfg, _ := trigger.Trigger()
	if !cfg.External() {
		return MatchResult{}
	}
	return MatchResult{Entries: e.entryAfterTrigger(g, trigger), Triggered: true}
}

func (e *Engine) triggerMatches(cfg domain.TriggerConfig, lowered string) bool {
	switch cfg.Type {
	case domain.TriggerKeyword:
		// An empty keyword list places no restriction: the trigger accepts
		// every inbound message.
		if len(cfg.Keywords) == 0 {
			return true
		}
		for _, kw := range cfg.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lowered, kw) {
				return true
			}
		}
		return false
	case domain.TriggerExactMatch:
		return strings.EqualFold(strings.TrimSpace(lowered), strings.ToLower(strings.TrimSpace(cfg.MatchText)))
	default:
		// schedule/webhook/integration are externally triggered; when the
		// message reaches us they are considered explicitly invoked.
		return true
	}
}

// entryAfterTrigger picks the first plain successor of the trigger, falling
// back to the first listed non-trigger step.
func (e *Engine) entryAfterTrigger(g *domain.Graph, trigger *domain.Step) []string {
	if succ := g.Successors(trigger.ID, nil); len(succ) > 0 {
		return []string{succ[0].To}
	}
	for _, step := range g.Steps() {
		if step.Type != domain.StepTypeTrigger {
			return []string{step.ID}
		}
	}
	return nil
}

func matchesKeywordList(lowered, commaList string) bool {
	for _, token := range strings.Split(commaList, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
