// Package dispatch walks a verb's delegation chain. A handler may call
// InvokeNext to hand off to the next-lower-precedence handler for the same
// verb; an explicit position stack tracks how far the chain has been
// walked, and deferred cleanup guarantees the stack never leaks between
// top-level commands, even when a handler fails or panics.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
)

// ErrNoActiveInvocation is the programmer-error condition for calling
// InvokeNext outside the scope of InvokeHandler. It indicates the runtime's
// own contract was violated by integration code, not by game content.
var ErrNoActiveInvocation = errors.New("dispatch: position stack not initialized (InvokeNext outside InvokeHandler)")

// ErrInvocationActive is returned for re-entrant InvokeHandler calls.
// Exactly one top-level verb may be active at a time.
var ErrInvocationActive = errors.New("dispatch: invocation already active")

// ErrNoHandler is returned when no module registered a handler for a verb.
var ErrNoHandler = errors.New("dispatch: no handler for verb")

// Invoker owns the position stack for one runtime instance. It is not a
// global: tests may run several independent invokers in one process.
type Invoker struct {
	registry  *module.Registry
	positions []int
}

// NewInvoker creates an invoker over the given registry.
func NewInvoker(registry *module.Registry) *Invoker {
	return &Invoker{registry: registry}
}

// Active reports whether a top-level invocation is in progress.
func (in *Invoker) Active() bool {
	return len(in.positions) > 0
}

// Depth returns the current position-stack depth. Zero when idle.
func (in *Invoker) Depth() int {
	return len(in.positions)
}

// InvokeHandler is the only legal top-level entry point. It calls the
// highest-precedence handler for the verb and guarantees the position
// stack is empty again on return, whatever the handler does.
func (in *Invoker) InvokeHandler(sa module.StateAccessor, verb string, cmd types.Command) (types.Result, error) {
	if in.Active() {
		return types.Result{}, fmt.Errorf("%w: verb %q", ErrInvocationActive, verb)
	}
	chain := in.registry.HandlerChain(verb)
	if len(chain) == 0 {
		return types.Result{}, fmt.Errorf("%w: %q", ErrNoHandler, verb)
	}

	in.positions = append(in.positions, 0)
	defer func() { in.positions = in.positions[:0] }()

	return chain[0].Handler(sa, cmd)
}

// InvokeNext delegates to the next handler in the chain for the verb. Past
// the end of the chain it returns a neutral result rather than an error;
// the innermost registered handler is expected to fully resolve the verb.
func (in *Invoker) InvokeNext(sa module.StateAccessor, verb string, cmd types.Command) (types.Result, error) {
	if !in.Active() {
		return types.Result{}, ErrNoActiveInvocation
	}

	next := in.positions[len(in.positions)-1] + 1
	in.positions = append(in.positions, next)
	defer func() { in.positions = in.positions[:len(in.positions)-1] }()

	chain := in.registry.HandlerChain(verb)
	if next >= len(chain) {
		return types.Result{Success: true}, nil
	}
	return chain[next].Handler(sa, cmd)
}
