package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/engine/world"
	"github.com/nathoo/fabula/types"
)

// accessor is the StateAccessor handed to handlers and event functions.
// It is the module boundary: everything a behavior module may do to the
// world goes through here.
type accessor struct {
	engine *Engine
}

var _ module.StateAccessor = (*accessor)(nil)

func (a *accessor) Get(id string) (*types.Entity, bool) {
	return a.engine.World.Get(id)
}

// Update pre-validates behavior-list attachments against the registry,
// then applies the changes. Pre-validation keeps the mutator itself free
// of registry awareness while still catching dangling module references
// before anything is applied.
func (a *accessor) Update(id string, changes []types.Change) error {
	e, ok := a.engine.World.Get(id)
	if !ok {
		return fmt.Errorf("update: unknown entity %q", id)
	}
	for _, ch := range changes {
		if err := a.validateBehaviorChange(ch); err != nil {
			return err
		}
	}
	return world.Update(e, changes)
}

func (a *accessor) validateBehaviorChange(ch types.Change) error {
	path := strings.TrimLeft(ch.Path, "+")
	if path != "behaviors" || strings.HasPrefix(ch.Path, "-") {
		return nil
	}
	names, ok := ch.Value.(string)
	if ok {
		if _, found := a.engine.Registry.Module(names); !found {
			return fmt.Errorf("update: unknown behavior module %q", names)
		}
		return nil
	}
	if list, isList := ch.Value.([]string); isList {
		for _, name := range list {
			if _, found := a.engine.Registry.Module(name); !found {
				return fmt.Errorf("update: unknown behavior module %q", name)
			}
		}
		return nil
	}
	// Script bridges decode lists as []any, the same shape the world
	// layer applies. Those go through the same module check.
	if list, isList := ch.Value.([]any); isList {
		for _, v := range list {
			name, isStr := v.(string)
			if !isStr {
				return fmt.Errorf("update: behavior list element %v is not a string", v)
			}
			if _, found := a.engine.Registry.Module(name); !found {
				return fmt.Errorf("update: unknown behavior module %q", name)
			}
		}
	}
	return nil
}

func (a *accessor) InvokeNext(verb string, cmd types.Command) (types.Result, error) {
	return a.engine.dispatcher.InvokeNext(a, verb, cmd)
}

func (a *accessor) InvokeEvent(entityID string, event string, ctx map[string]any) (types.Outcome, error) {
	var e *types.Entity
	if entityID != "" {
		var ok bool
		e, ok = a.engine.World.Get(entityID)
		if !ok {
			return types.Outcome{}, fmt.Errorf("invoke event %q: unknown entity %q", event, entityID)
		}
	}
	return a.engine.behaviors.InvokeEvent(a, e, event, ctx)
}

func (a *accessor) Player() string {
	return a.engine.World.Player()
}

func (a *accessor) EntitiesAt(locationID string) []string {
	return a.engine.World.EntitiesAt(locationID)
}

func (a *accessor) FindAt(locationID, noun string, adjectives []string) string {
	return a.engine.World.FindAt(locationID, noun, adjectives)
}
