// Package world owns the entity table and the path-addressed mutation
// primitive. The world exclusively owns all entities; cross-references are
// plain ID strings resolved through lookup, never pointers.
package world

import (
	"sort"
	"strings"

	"github.com/nathoo/fabula/types"
)

// World is the entity container for one loaded game.
type World struct {
	entities map[string]*types.Entity
	player   string
}

// New creates an empty world.
func New() *World {
	return &World{entities: map[string]*types.Entity{}}
}

// Add inserts an entity, replacing any previous entity with the same ID.
// A nil Props bag is normalized to an empty one.
func (w *World) Add(e *types.Entity) {
	if e.Props == nil {
		e.Props = map[string]any{}
	}
	w.entities[e.ID] = e
}

// Get returns the entity with the given ID.
func (w *World) Get(id string) (*types.Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Remove deletes an entity from the world.
func (w *World) Remove(id string) {
	delete(w.entities, id)
}

// IDs returns all entity IDs in sorted order.
func (w *World) IDs() []string {
	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetPlayer records the primary player entity ID.
func (w *World) SetPlayer(id string) {
	w.player = id
}

// Player returns the primary player entity ID.
func (w *World) Player() string {
	return w.player
}

// Location returns the entity's location reference, if set.
func Location(e *types.Entity) string {
	loc, _ := e.Props["location"].(string)
	return loc
}

// EntitiesAt returns the IDs of all entities located at the given entity,
// in sorted order for deterministic output.
func (w *World) EntitiesAt(locationID string) []string {
	var out []string
	for id, e := range w.entities {
		if Location(e) == locationID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// FindAt locates an entity at a location by noun and optional adjective
// modifiers. Matching checks the entity name and the optional "nouns" and
// "adjectives" word lists in the property bag. Returns "" if nothing
// matches; the first match in sorted ID order wins.
func (w *World) FindAt(locationID, noun string, adjectives []string) string {
	for _, id := range w.EntitiesAt(locationID) {
		e := w.entities[id]
		if !matchesNoun(e, noun) {
			continue
		}
		if matchesAdjectives(e, adjectives) {
			return id
		}
	}
	return ""
}

func matchesNoun(e *types.Entity, noun string) bool {
	if noun == "" {
		return false
	}
	if strings.EqualFold(e.Name, noun) {
		return true
	}
	for _, w := range strings.Fields(strings.ToLower(e.Name)) {
		if w == strings.ToLower(noun) {
			return true
		}
	}
	return wordListContains(e.Props["nouns"], noun)
}

func matchesAdjectives(e *types.Entity, adjectives []string) bool {
	for _, adj := range adjectives {
		if !wordListContains(e.Props["adjectives"], adj) &&
			!strings.Contains(strings.ToLower(e.Name), strings.ToLower(adj)) {
			return false
		}
	}
	return true
}

func wordListContains(v any, word string) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if s, ok := item.(string); ok && strings.EqualFold(s, word) {
			return true
		}
	}
	return false
}
