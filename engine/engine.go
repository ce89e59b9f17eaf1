// Package engine wires vocabulary, module registration, dispatch, the
// world, entity behaviors, and the turn-phase scheduler into a single
// synchronous command-resolution path. One Step call is one turn.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nathoo/fabula/engine/behavior"
	"github.com/nathoo/fabula/engine/dispatch"
	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/engine/parser"
	"github.com/nathoo/fabula/engine/phase"
	"github.com/nathoo/fabula/engine/vocab"
	"github.com/nathoo/fabula/engine/world"
	"github.com/nathoo/fabula/types"
)

// Engine holds one loaded game: the world, the registries, and the
// dispatch machinery. Strictly single-threaded; nothing here locks.
type Engine struct {
	World    *world.World
	Vocab    *vocab.Registry
	Registry *module.Registry

	SessionID  uuid.UUID
	TurnCount  int
	CommandLog []string

	dispatcher *dispatch.Invoker
	behaviors  *behavior.Invoker
	phases     *phase.Scheduler
	logger     *slog.Logger
}

// New creates an engine with an empty world and no modules loaded.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	registry := module.NewRegistry()
	v := vocab.New(phase.Hooks)
	behaviors := behavior.NewInvoker(registry)
	return &Engine{
		World:      world.New(),
		Vocab:      v,
		Registry:   registry,
		SessionID:  uuid.New(),
		dispatcher: dispatch.NewInvoker(registry),
		behaviors:  behaviors,
		phases:     phase.NewScheduler(v, behaviors, logger),
		logger:     logger,
	}
}

// LoadModule merges the module's vocabulary and registers its handlers at
// the given tier. Any failure aborts loading; the game cannot start until
// the module set is consistent.
func (e *Engine) LoadModule(m *module.Module, tier int) error {
	if err := e.Vocab.MergeModule(m.Name, m.Vocab); err != nil {
		return fmt.Errorf("loading module %q: %w", m.Name, err)
	}
	if err := e.Registry.Load(m, tier); err != nil {
		return fmt.Errorf("loading module %q: %w", m.Name, err)
	}
	e.logger.Debug("module loaded",
		"module", m.Name, "tier", tier,
		"handlers", len(m.Handlers), "events", len(m.Events))
	return nil
}

// AddEntity inserts an entity after validating its behavior references
// against the loaded module set. Structural references are validated at
// the point of attachment; the free-form Props bag never is.
func (e *Engine) AddEntity(ent *types.Entity) error {
	for _, name := range ent.Behaviors {
		if _, ok := e.Registry.Module(name); !ok {
			return fmt.Errorf("entity %q references unknown behavior module %q", ent.ID, name)
		}
	}
	e.World.Add(ent)
	return nil
}

// Step parses one input line and executes it as a turn.
func (e *Engine) Step(input string) types.Result {
	cmd := parser.Parse(e.Vocab, input)
	if cmd.Verb == "" {
		return types.Result{Success: false, Message: "What do you want to do?"}
	}
	return e.Execute(cmd)
}

// Execute runs one normalized command as a turn: object-requirement guard,
// dispatch through the delegation chain, then — only on success — the
// turn-phase sequence. The command log and turn counter advance on every
// handled command.
func (e *Engine) Execute(cmd types.Command) types.Result {
	if cmd.Actor == "" {
		cmd.Actor = e.World.Player()
	}
	e.CommandLog = append(e.CommandLog, cmd.Raw)

	if res, blocked := e.checkObjectRule(cmd); blocked {
		e.TurnCount++
		return res
	}

	sa := &accessor{engine: e}
	res, err := e.dispatcher.InvokeHandler(sa, cmd.Verb, cmd)
	switch {
	case errors.Is(err, dispatch.ErrNoHandler):
		e.TurnCount++
		return types.Result{Success: false, Message: fmt.Sprintf("You don't know how to %q.", cmd.Verb)}
	case err != nil:
		// Handler errors never corrupt dispatch state; surface them as an
		// in-world failure and keep the full error in the log.
		e.logger.Error("command failed", "session", e.SessionID, "verb", cmd.Verb, "error", err)
		e.TurnCount++
		return types.Result{Success: false, Message: "Something went wrong there."}
	}

	if res.Success {
		phaseMessages := e.phases.Run(sa, map[string]any{
			"turn": e.TurnCount,
			"verb": cmd.Verb,
		})
		if len(phaseMessages) > 0 {
			parts := append([]string{res.Message}, phaseMessages...)
			if res.Message == "" {
				parts = parts[1:]
			}
			res.Message = strings.Join(parts, "\n")
		}
	}

	e.TurnCount++
	return res
}

// checkObjectRule enforces a verb's object-requirement flag before any
// handler runs.
func (e *Engine) checkObjectRule(cmd types.Command) (types.Result, bool) {
	rule, ok := e.Vocab.ObjectRule(cmd.Verb)
	if !ok {
		return types.Result{}, false
	}
	switch rule {
	case types.ObjectRequired:
		if cmd.Object == "" {
			return types.Result{Success: false, Message: fmt.Sprintf("What do you want to %s?", cmd.Verb)}, true
		}
	case types.ObjectForbidden:
		if cmd.Object != "" {
			return types.Result{Success: false, Message: fmt.Sprintf("You can't %s that.", cmd.Verb)}, true
		}
	}
	return types.Result{}, false
}
