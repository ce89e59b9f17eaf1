// Package phase fires the fixed sequence of turn-phase hooks after every
// successful top-level command. The hook list belongs to the runtime;
// content modules only bind events to hooks through their vocabulary.
package phase

import (
	"log/slog"

	"github.com/nathoo/fabula/engine/behavior"
	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/engine/vocab"
)

// Hooks is the fixed, ordered sequence of turn-phase hook names.
var Hooks = []string{
	"environment", // ambient world changes (weather, light, decay)
	"actors",      // non-player actors take their turns
	"timers",      // fuses, countdowns, scheduled happenings
	"report",      // end-of-turn status reporting
}

// Scheduler resolves each hook to its bound event and fires it as a
// world-phase event.
type Scheduler struct {
	vocab    *vocab.Registry
	behavior *behavior.Invoker
	logger   *slog.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(v *vocab.Registry, b *behavior.Invoker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{vocab: v, behavior: b, logger: logger}
}

// Run fires the hook sequence in order and returns each phase's message,
// if any, in hook order. A hook with no bound event is silently skipped;
// a phase that fails is logged and never blocks the phases after it.
// The caller runs the sequence only after a successful command.
func (s *Scheduler) Run(sa module.StateAccessor, ctx map[string]any) []string {
	var messages []string
	for _, hook := range Hooks {
		event, ok := s.vocab.EventForHook(hook)
		if !ok {
			continue
		}
		out, err := s.behavior.InvokeEvent(sa, nil, event, ctx)
		if err != nil {
			s.logger.Warn("turn phase failed", "hook", hook, "event", event, "error", err)
			continue
		}
		if out.Message != "" {
			messages = append(messages, out.Message)
		}
	}
	return messages
}
