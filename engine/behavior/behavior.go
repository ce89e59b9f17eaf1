// Package behavior invokes entity-scoped event functions and composes
// their verdicts. Behaviors layer rather than override: a single denial
// blocks the action, and every contributing message is kept. Overriding is
// the job of handler-tier delegation, not event composition.
package behavior

import (
	"fmt"
	"strings"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
)

// Invoker resolves behavior-module references and runs event functions.
type Invoker struct {
	registry *module.Registry
}

// NewInvoker creates an invoker over the given registry.
func NewInvoker(registry *module.Registry) *Invoker {
	return &Invoker{registry: registry}
}

// InvokeEvent runs every behavior module attached to the entity that
// implements the event, in list order, and composes the outcomes:
// allow is the AND of every verdict, message the newline-joined non-empty
// messages in module order. No attached modules, or none implementing the
// event, is a neutral allow, not an error.
//
// A nil entity means a world-phase event: every loaded module exporting the
// event is invoked in load order, and each is responsible for iterating
// whatever entities it cares about itself.
func (in *Invoker) InvokeEvent(sa module.StateAccessor, e *types.Entity, event string, ctx map[string]any) (types.Outcome, error) {
	fns, names := in.implementers(e, event)

	allow := true
	var messages []string
	for i, fn := range fns {
		out, err := fn(e, sa, ctx)
		if err != nil {
			return types.Outcome{}, fmt.Errorf("event %q in module %q: %w", event, names[i], err)
		}
		allow = allow && out.Allow
		if out.Message != "" {
			messages = append(messages, out.Message)
		}
	}
	return types.Outcome{Allow: allow, Message: strings.Join(messages, "\n")}, nil
}

func (in *Invoker) implementers(e *types.Entity, event string) ([]module.EventFunc, []string) {
	var fns []module.EventFunc
	var names []string

	if e == nil {
		for _, m := range in.registry.EventExporters(event) {
			fns = append(fns, m.Events[event])
			names = append(names, m.Name)
		}
		return fns, names
	}

	for _, name := range e.Behaviors {
		m, ok := in.registry.Module(name)
		if !ok {
			// Attachment is validated when behaviors are attached; a name
			// that still fails to resolve (stale save data) is skipped.
			continue
		}
		fn, ok := m.Events[event]
		if !ok {
			continue
		}
		fns = append(fns, fn)
		names = append(names, name)
	}
	return fns, names
}
