package engine

import (
	"strings"
	"testing"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
)

func takeVocab() *types.Vocabulary {
	return &types.Vocabulary{
		Verbs: []types.VerbDef{{Word: "take", Event: "take", Object: types.ObjectOptional}},
	}
}

func TestExecute_DelegationAcrossTiers(t *testing.T) {
	e := New(nil)

	core := &module.Module{
		Name:  "core",
		Vocab: takeVocab(),
		Handlers: map[string]module.Handler{
			"take": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				return types.Result{Success: true, Message: "core-take"}, nil
			},
		},
	}
	game := &module.Module{
		Name:  "game",
		Vocab: takeVocab(),
		Handlers: map[string]module.Handler{
			"take": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				res, err := sa.InvokeNext("take", cmd)
				if err != nil {
					return res, err
				}
				return types.Result{Success: res.Success, Message: "game:" + res.Message}, nil
			},
		},
	}

	if err := e.LoadModule(core, 2); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadModule(game, 1); err != nil {
		t.Fatal(err)
	}

	res := e.Execute(types.Command{Verb: "take"})
	if !res.Success || res.Message != "game:core-take" {
		t.Errorf("expected game:core-take, got %+v", res)
	}
}

func TestLoadModule_SameTierConflict(t *testing.T) {
	e := New(nil)
	handler := func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		return types.Result{Success: true}, nil
	}
	a := &module.Module{Name: "alpha", Handlers: map[string]module.Handler{"drop": handler}}
	b := &module.Module{Name: "beta", Handlers: map[string]module.Handler{"drop": handler}}

	if err := e.LoadModule(a, 1); err != nil {
		t.Fatal(err)
	}
	err := e.LoadModule(b, 1)
	if err == nil {
		t.Fatal("expected same-tier conflict")
	}
	for _, want := range []string{"alpha", "beta", "drop"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("conflict error should mention %q: %v", want, err)
		}
	}
}

func TestExecute_UnknownVerb(t *testing.T) {
	e := New(nil)
	res := e.Execute(types.Command{Verb: "dance"})
	if res.Success {
		t.Error("unknown verb must not succeed")
	}
	if e.TurnCount != 1 {
		t.Errorf("turn count should still advance, got %d", e.TurnCount)
	}
}

func TestExecute_ObjectRequiredGuard(t *testing.T) {
	e := New(nil)
	m := &module.Module{
		Name: "core",
		Vocab: &types.Vocabulary{
			Verbs: []types.VerbDef{{Word: "take", Event: "take", Object: types.ObjectRequired}},
		},
		Handlers: map[string]module.Handler{
			"take": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				t.Error("handler must not run without a required object")
				return types.Result{}, nil
			},
		},
	}
	if err := e.LoadModule(m, 1); err != nil {
		t.Fatal(err)
	}

	res := e.Execute(types.Command{Verb: "take"})
	if res.Success || !strings.Contains(res.Message, "What do you want to take?") {
		t.Errorf("expected object prompt, got %+v", res)
	}
}

func TestExecute_ObjectForbiddenGuard(t *testing.T) {
	e := New(nil)
	m := &module.Module{
		Name: "core",
		Vocab: &types.Vocabulary{
			Verbs: []types.VerbDef{{Word: "wait", Event: "wait", Object: types.ObjectForbidden}},
		},
		Handlers: map[string]module.Handler{
			"wait": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				return types.Result{Success: true}, nil
			},
		},
	}
	if err := e.LoadModule(m, 1); err != nil {
		t.Fatal(err)
	}

	res := e.Execute(types.Command{Verb: "wait", Object: "patiently"})
	if res.Success {
		t.Errorf("forbidden object must block, got %+v", res)
	}
}

func TestExecute_PhasesRunOnlyAfterSuccess(t *testing.T) {
	e := New(nil)
	phaseRan := false
	m := &module.Module{
		Name: "core",
		Vocab: &types.Vocabulary{
			Verbs: []types.VerbDef{
				{Word: "win", Event: "win"},
				{Word: "fail", Event: "fail"},
			},
			Hooks: map[string]string{"timers": "tick"},
		},
		Handlers: map[string]module.Handler{
			"win": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				return types.Result{Success: true, Message: "Done."}, nil
			},
			"fail": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				return types.Result{Success: false, Message: "No."}, nil
			},
		},
		Events: map[string]module.EventFunc{
			"tick": func(ent *types.Entity, sa module.StateAccessor, ctx map[string]any) (types.Outcome, error) {
				phaseRan = true
				return types.Outcome{Allow: true, Message: "The clock ticks."}, nil
			},
		},
	}
	if err := e.LoadModule(m, 1); err != nil {
		t.Fatal(err)
	}

	res := e.Execute(types.Command{Verb: "fail"})
	if phaseRan {
		t.Error("phases must not run after a failed command")
	}
	if res.Message != "No." {
		t.Errorf("expected No., got %q", res.Message)
	}

	res = e.Execute(types.Command{Verb: "win"})
	if !phaseRan {
		t.Error("phases must run after a successful command")
	}
	if res.Message != "Done.\nThe clock ticks." {
		t.Errorf("expected phase message appended, got %q", res.Message)
	}
}

func TestStep_ParsesThroughVocabulary(t *testing.T) {
	e := New(nil)
	var got types.Command
	m := &module.Module{
		Name: "core",
		Vocab: &types.Vocabulary{
			Verbs: []types.VerbDef{{Word: "take", Synonyms: []string{"grab"}, Event: "take", Object: types.ObjectRequired}},
		},
		Handlers: map[string]module.Handler{
			"take": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				got = cmd
				return types.Result{Success: true}, nil
			},
		},
	}
	if err := e.LoadModule(m, 1); err != nil {
		t.Fatal(err)
	}

	e.Step("grab the lamp")
	if got.Verb != "take" || got.Object != "lamp" {
		t.Errorf("expected canonicalized take lamp, got %+v", got)
	}
	if len(e.CommandLog) != 1 || e.CommandLog[0] != "grab the lamp" {
		t.Errorf("expected raw input logged, got %v", e.CommandLog)
	}
}

func TestStep_EmptyInput(t *testing.T) {
	e := New(nil)
	res := e.Step("   ")
	if res.Success {
		t.Error("empty input must not succeed")
	}
	if e.TurnCount != 0 {
		t.Error("empty input must not consume a turn")
	}
}

func TestExecute_ActorDefaultsToPlayer(t *testing.T) {
	e := New(nil)
	var got types.Command
	m := &module.Module{
		Name:  "core",
		Vocab: takeVocab(),
		Handlers: map[string]module.Handler{
			"take": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				got = cmd
				return types.Result{Success: true}, nil
			},
		},
	}
	if err := e.LoadModule(m, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.AddEntity(&types.Entity{ID: "hero", Name: "You"}); err != nil {
		t.Fatal(err)
	}
	e.World.SetPlayer("hero")

	e.Execute(types.Command{Verb: "take"})
	if got.Actor != "hero" {
		t.Errorf("expected actor defaulted to player, got %q", got.Actor)
	}
}

func TestUpdate_UnknownBehaviorRejectedInAnyList(t *testing.T) {
	e := New(nil)
	var updateErr error
	m := &module.Module{
		Name:  "core",
		Vocab: takeVocab(),
		Handlers: map[string]module.Handler{
			"take": func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
				// Script bridges hand lists over as []any.
				updateErr = sa.Update("lamp", []types.Change{
					{Path: "+behaviors", Value: []any{"ghost"}},
				})
				return types.Result{Success: true}, nil
			},
		},
	}
	if err := e.LoadModule(m, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.AddEntity(&types.Entity{ID: "lamp", Name: "lamp"}); err != nil {
		t.Fatal(err)
	}

	e.Execute(types.Command{Verb: "take", Actor: "lamp"})
	if updateErr == nil {
		t.Fatal("expected unknown behavior module in []any list to be rejected")
	}
	lamp, _ := e.World.Get("lamp")
	if len(lamp.Behaviors) != 0 {
		t.Errorf("rejected attach must not touch the entity, got %v", lamp.Behaviors)
	}
}

func TestAddEntity_UnknownBehaviorRejected(t *testing.T) {
	e := New(nil)
	err := e.AddEntity(&types.Entity{ID: "lamp", Behaviors: []string{"ghost"}})
	if err == nil {
		t.Fatal("expected unknown behavior reference to be rejected")
	}
}
