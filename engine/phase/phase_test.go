package phase

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/nathoo/fabula/engine/behavior"
	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/engine/vocab"
	"github.com/nathoo/fabula/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func phaseModule(name string, events map[string]string) *module.Module {
	fns := map[string]module.EventFunc{}
	for event, msg := range events {
		message := msg
		fns[event] = func(e *types.Entity, sa module.StateAccessor, ctx map[string]any) (types.Outcome, error) {
			return types.Outcome{Allow: true, Message: message}, nil
		}
	}
	return &module.Module{Name: name, Events: fns}
}

func TestRun_PhasesFireInHookOrder(t *testing.T) {
	r := module.NewRegistry()
	v := vocab.New(Hooks)

	m := phaseModule("clockwork", map[string]string{
		"tick":   "The clock ticks.",
		"status": "You feel tired.",
	})
	if err := r.Load(m, 1); err != nil {
		t.Fatal(err)
	}
	if err := v.MergeModule("clockwork", &types.Vocabulary{
		Hooks: map[string]string{"report": "status", "timers": "tick"},
	}); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(v, behavior.NewInvoker(r), quietLogger())
	got := s.Run(nil, nil)
	// timers comes before report in the fixed hook order, whatever order
	// the module declared its bindings in.
	want := []string{"The clock ticks.", "You feel tired."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRun_UnboundHooksSkipped(t *testing.T) {
	r := module.NewRegistry()
	v := vocab.New(Hooks)
	s := NewScheduler(v, behavior.NewInvoker(r), quietLogger())
	if got := s.Run(nil, nil); len(got) != 0 {
		t.Errorf("expected no phase messages, got %v", got)
	}
}

func TestRun_FailingPhaseDoesNotBlockLaterPhases(t *testing.T) {
	r := module.NewRegistry()
	v := vocab.New(Hooks)

	broken := &module.Module{
		Name: "broken",
		Events: map[string]module.EventFunc{
			"tick": func(e *types.Entity, sa module.StateAccessor, ctx map[string]any) (types.Outcome, error) {
				return types.Outcome{}, errors.New("tick failed")
			},
		},
	}
	if err := r.Load(broken, 1); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(phaseModule("reporter", map[string]string{"status": "Still standing."}), 2); err != nil {
		t.Fatal(err)
	}
	if err := v.MergeModule("broken", &types.Vocabulary{Hooks: map[string]string{"timers": "tick"}}); err != nil {
		t.Fatal(err)
	}
	if err := v.MergeModule("reporter", &types.Vocabulary{Hooks: map[string]string{"report": "status"}}); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(v, behavior.NewInvoker(r), quietLogger())
	got := s.Run(nil, nil)
	if !reflect.DeepEqual(got, []string{"Still standing."}) {
		t.Errorf("a failing phase must not suppress later phases, got %v", got)
	}
}

func TestRun_SilentPhaseProducesNoMessage(t *testing.T) {
	r := module.NewRegistry()
	v := vocab.New(Hooks)
	if err := r.Load(phaseModule("quiet", map[string]string{"tick": ""}), 1); err != nil {
		t.Fatal(err)
	}
	if err := v.MergeModule("quiet", &types.Vocabulary{Hooks: map[string]string{"timers": "tick"}}); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(v, behavior.NewInvoker(r), quietLogger())
	if got := s.Run(nil, nil); len(got) != 0 {
		t.Errorf("expected no messages from a silent phase, got %v", got)
	}
}
