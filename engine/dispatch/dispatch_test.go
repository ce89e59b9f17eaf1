package dispatch

import (
	"errors"
	"testing"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
)

func loadHandler(t *testing.T, r *module.Registry, name, verb string, tier int, h module.Handler) {
	t.Helper()
	m := &module.Module{Name: name, Handlers: map[string]module.Handler{verb: h}}
	if err := r.Load(m, tier); err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
}

func TestInvokeHandler_LowestTierRunsFirst(t *testing.T) {
	r := module.NewRegistry()
	var order []string
	loadHandler(t, r, "core", "take", 2, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		order = append(order, "core")
		return types.Result{Success: true}, nil
	})
	loadHandler(t, r, "game", "take", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		order = append(order, "game")
		return types.Result{Success: true}, nil
	})

	in := NewInvoker(r)
	if _, err := in.InvokeHandler(nil, "take", types.Command{Verb: "take"}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 1 || order[0] != "game" {
		t.Errorf("expected only the tier-1 handler to run, got %v", order)
	}
}

func TestInvokeNext_ReachesNextTierInOrder(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)

	loadHandler(t, r, "core", "take", 3, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		return types.Result{Success: true, Message: "core-take"}, nil
	})
	loadHandler(t, r, "lib", "take", 2, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		res, err := in.InvokeNext(sa, "take", cmd)
		if err != nil {
			return res, err
		}
		return types.Result{Success: res.Success, Message: "lib:" + res.Message}, nil
	})
	loadHandler(t, r, "game", "take", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		res, err := in.InvokeNext(sa, "take", cmd)
		if err != nil {
			return res, err
		}
		return types.Result{Success: res.Success, Message: "game:" + res.Message}, nil
	})

	res, err := in.InvokeHandler(nil, "take", types.Command{Verb: "take"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Message != "game:lib:core-take" {
		t.Errorf("expected game:lib:core-take, got %+v", res)
	}
}

func TestInvokeHandler_StackEmptyAfterSuccess(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)
	loadHandler(t, r, "core", "wait", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		if in.Depth() != 1 {
			t.Errorf("expected depth 1 inside handler, got %d", in.Depth())
		}
		return types.Result{Success: true}, nil
	})

	if _, err := in.InvokeHandler(nil, "wait", types.Command{Verb: "wait"}); err != nil {
		t.Fatal(err)
	}
	if in.Active() {
		t.Error("position stack must be empty after InvokeHandler returns")
	}
}

func TestInvokeHandler_StackEmptyAfterHandlerError(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)
	boom := errors.New("boom")
	loadHandler(t, r, "core", "wait", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		return types.Result{}, boom
	})

	_, err := in.InvokeHandler(nil, "wait", types.Command{Verb: "wait"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
	if in.Active() {
		t.Error("position stack must be empty after a failing handler")
	}
}

func TestInvokeHandler_StackEmptyAfterPanic(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)
	loadHandler(t, r, "core", "wait", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		panic("handler bug")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		in.InvokeHandler(nil, "wait", types.Command{Verb: "wait"})
	}()
	if in.Active() {
		t.Error("position stack must be empty after a panicking handler")
	}
}

func TestInvokeNext_OutsideInvocationIsProgrammerError(t *testing.T) {
	in := NewInvoker(module.NewRegistry())
	_, err := in.InvokeNext(nil, "take", types.Command{Verb: "take"})
	if !errors.Is(err, ErrNoActiveInvocation) {
		t.Fatalf("expected ErrNoActiveInvocation, got %v", err)
	}
}

func TestInvokeNext_PastEndOfChainIsNeutral(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)
	loadHandler(t, r, "only", "take", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		res, err := in.InvokeNext(sa, "take", cmd)
		if err != nil {
			t.Errorf("past-end delegation must not error: %v", err)
		}
		if !res.Success || res.Message != "" {
			t.Errorf("expected neutral result, got %+v", res)
		}
		return types.Result{Success: true, Message: "only"}, nil
	})

	res, err := in.InvokeHandler(nil, "take", types.Command{Verb: "take"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "only" {
		t.Errorf("expected only, got %q", res.Message)
	}
}

func TestInvokeNext_RepeatedDelegationFromOneHandler(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)
	calls := 0
	loadHandler(t, r, "core", "look", 2, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		calls++
		return types.Result{Success: true, Message: "room"}, nil
	})
	loadHandler(t, r, "game", "look", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		// A handler may delegate any number of times for the same verb.
		if _, err := in.InvokeNext(sa, "look", cmd); err != nil {
			return types.Result{}, err
		}
		return in.InvokeNext(sa, "look", cmd)
	})

	res, err := in.InvokeHandler(nil, "look", types.Command{Verb: "look"})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected core handler called twice, got %d", calls)
	}
	if res.Message != "room" {
		t.Errorf("expected room, got %q", res.Message)
	}
}

func TestInvokeHandler_ReentrantCallRefused(t *testing.T) {
	r := module.NewRegistry()
	in := NewInvoker(r)
	var inner error
	loadHandler(t, r, "core", "wait", 1, func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		_, inner = in.InvokeHandler(sa, "wait", cmd)
		return types.Result{Success: true}, nil
	})

	if _, err := in.InvokeHandler(nil, "wait", types.Command{Verb: "wait"}); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, ErrInvocationActive) {
		t.Errorf("expected ErrInvocationActive for re-entrant call, got %v", inner)
	}
}

func TestInvokeHandler_UnknownVerb(t *testing.T) {
	in := NewInvoker(module.NewRegistry())
	_, err := in.InvokeHandler(nil, "dance", types.Command{Verb: "dance"})
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
	if in.Active() {
		t.Error("stack must stay empty when no chain exists")
	}
}
