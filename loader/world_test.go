package loader_test

import (
	"testing"

	"github.com/nathoo/fabula/loader"
)

func TestLoadWorld_ParsesEntities(t *testing.T) {
	path := writeScript(t, t.TempDir(), "world.json", `{
		"intro": "An adventure begins.",
		"player": "player",
		"entities": [
			{"ID": "cellar", "Name": "Cellar", "Props": {"description": "Dark."}},
			{"ID": "player", "Name": "You", "Props": {"location": "cellar"}}
		]
	}`)
	wd, err := loader.LoadWorld(path)
	if err != nil {
		t.Fatal(err)
	}
	if wd.Intro != "An adventure begins." {
		t.Errorf("intro = %q", wd.Intro)
	}
	if wd.Player != "player" || len(wd.Entities) != 2 {
		t.Errorf("unexpected world: %+v", wd)
	}
	if wd.Entities[0].Props["description"] != "Dark." {
		t.Errorf("props did not round-trip: %v", wd.Entities[0].Props)
	}
}

func TestLoadWorld_RejectsMissingPlayer(t *testing.T) {
	path := writeScript(t, t.TempDir(), "world.json", `{
		"player": "ghost",
		"entities": [{"ID": "cellar", "Name": "Cellar"}]
	}`)
	if _, err := loader.LoadWorld(path); err == nil {
		t.Fatal("expected an error for a player outside the entity table")
	}
}

func TestLoadWorld_RejectsDuplicateIDs(t *testing.T) {
	path := writeScript(t, t.TempDir(), "world.json", `{
		"player": "a",
		"entities": [{"ID": "a"}, {"ID": "a"}]
	}`)
	if _, err := loader.LoadWorld(path); err == nil {
		t.Fatal("expected an error for duplicate entity ids")
	}
}
