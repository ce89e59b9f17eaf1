package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nathoo/fabula/baselib"
	"github.com/nathoo/fabula/engine"
	"github.com/nathoo/fabula/storage"
	"github.com/nathoo/fabula/types"
)

// testEngine builds an engine with baselib and a two-room world.
func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(nil)
	if err := eng.LoadModule(baselib.New(), 3); err != nil {
		t.Fatal(err)
	}
	entities := []*types.Entity{
		{ID: "hall", Name: "Grand Hall", Props: map[string]any{
			"description": "A grand hall.",
			"exits":       map[string]any{"north": "garden"},
		}},
		{ID: "garden", Name: "Garden", Props: map[string]any{
			"description": "A peaceful garden.",
			"exits":       map[string]any{"south": "hall"},
		}},
		{ID: "player", Name: "You", Props: map[string]any{"location": "hall"}},
		{ID: "key", Name: "rusty key", Props: map[string]any{
			"description": "An old key.",
			"location":    "hall",
			"portable":    true,
		}},
	}
	for _, ent := range entities {
		if err := eng.AddEntity(ent); err != nil {
			t.Fatal(err)
		}
	}
	eng.World.SetPlayer("player")
	return eng
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	c := &CLI{
		Engine: testEngine(t),
		Store:  store,
		In:     strings.NewReader(input),
		Out:    &out,
		Intro:  "Welcome to the test.",
	}
	return c, &out
}

func TestCLI_IntroAndStartingLocation(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "Welcome to the test.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "A grand hall.") {
		t.Error("expected starting location description in output")
	}
}

func TestCLI_BasicGameplay(t *testing.T) {
	c, out := newTestCLI(t, "take key\ninventory\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "rusty key") {
		t.Error("expected the key in the inventory listing")
	}
}

func TestCLI_Navigation(t *testing.T) {
	c, out := newTestCLI(t, "go north\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "A peaceful garden.") {
		t.Error("expected garden description after going north")
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run()

	output := out.String()
	for _, want := range []string{"/save", "/load", "/quit"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in help output", want)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Play a bit and save.
	var out bytes.Buffer
	c := &CLI{
		Engine: testEngine(t),
		Store:  store,
		In:     strings.NewReader("go north\n/save test\n/quit\n"),
		Out:    &out,
	}
	c.Run()

	if !strings.Contains(out.String(), "Game saved to test.") {
		t.Error("expected save confirmation")
	}

	// Start fresh and load.
	var out2 bytes.Buffer
	c2 := &CLI{
		Engine: testEngine(t),
		Store:  store,
		In:     strings.NewReader("/load test\n/quit\n"),
		Out:    &out2,
	}
	c2.Run()

	loadOutput := out2.String()
	if !strings.Contains(loadOutput, "Game loaded from test") {
		t.Error("expected load confirmation")
	}
	// After loading, the player should be back in the garden.
	if !strings.Contains(loadOutput, "A peaceful garden.") {
		t.Error("expected garden description after loading save")
	}
}

func TestCLI_SavesListing(t *testing.T) {
	c, out := newTestCLI(t, "/save alpha\n/save beta\n/saves\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Saves: alpha, beta") {
		t.Error("expected sorted save listing")
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, "/bogus\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nlook\n/trace\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "Trace output disabled") {
		t.Error("expected trace disabled message")
	}
	if !strings.Contains(output, "[trace]") {
		t.Error("expected a trace line while enabled")
	}
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "/state\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "Location: hall") {
		t.Error("expected location in state output")
	}
	if !strings.Contains(output, "Turn:") {
		t.Error("expected turn count in state output")
	}
	if !strings.Contains(output, "Modules: baselib") {
		t.Error("expected module names, not pointer values, in state output")
	}
}

func TestCLI_EmptyInput(t *testing.T) {
	c, out := newTestCLI(t, "\n\n/quit\n")
	c.Run()

	// Empty lines are skipped before the engine sees them.
	if strings.Contains(out.String(), "What do you want to do?") {
		t.Error("empty lines should be silently skipped by the CLI")
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	c, out := newTestCLI(t, "/load nonexistent\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Load failed") {
		t.Error("expected load failure message")
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "look\nagain\n/quit\n")
	c.Run()

	// Startup look plus the two explicit commands.
	count := strings.Count(out.String(), "A grand hall.")
	if count < 3 {
		t.Errorf("expected 'A grand hall.' at least 3 times (startup + look + again), got %d", count)
	}
}

func TestCLI_G_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "look\ng\n/quit\n")
	c.Run()

	count := strings.Count(out.String(), "A grand hall.")
	if count < 3 {
		t.Errorf("expected 'A grand hall.' at least 3 times, got %d", count)
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}

func TestCLI_WrapsLongOutput(t *testing.T) {
	eng := testEngine(t)
	hall, _ := eng.World.Get("hall")
	hall.Props["description"] = strings.Repeat("very long prose ", 10)

	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	c := &CLI{
		Engine: eng,
		Store:  store,
		In:     strings.NewReader("/quit\n"),
		Out:    &out,
		Width:  40,
	}
	c.Run()

	for _, line := range strings.Split(out.String(), "\n") {
		if len(line) > 40 {
			t.Errorf("line exceeds wrap width: %q", line)
		}
	}
}
