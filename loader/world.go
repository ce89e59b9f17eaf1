package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nathoo/fabula/types"
)

// WorldDef is the static world shipped with a game: the entity table, the
// player, and the intro text. Behavior scripts supply everything dynamic.
type WorldDef struct {
	Intro    string          `json:"intro,omitempty"`
	Player   string          `json:"player"`
	Entities []*types.Entity `json:"entities"`
}

// LoadWorld reads a world definition from a JSON file.
func LoadWorld(path string) (*WorldDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world definition: %w", err)
	}
	var wd WorldDef
	if err := json.Unmarshal(data, &wd); err != nil {
		return nil, fmt.Errorf("parsing world definition %s: %w", path, err)
	}
	if wd.Player == "" {
		return nil, fmt.Errorf("world definition %s names no player entity", path)
	}
	ids := map[string]bool{}
	for _, e := range wd.Entities {
		if e.ID == "" {
			return nil, fmt.Errorf("world definition %s has an entity with no id", path)
		}
		if ids[e.ID] {
			return nil, fmt.Errorf("world definition %s repeats entity %q", path, e.ID)
		}
		ids[e.ID] = true
	}
	if !ids[wd.Player] {
		return nil, fmt.Errorf("world definition %s: player %q is not in the entity table", path, wd.Player)
	}
	return &wd, nil
}
