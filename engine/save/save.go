// Package save implements JSON serialization and deserialization of game
// state. Only mutable state is recorded: entities, the player reference,
// turn count, and the command log. Module registrations are rebuilt by
// loading the same module set, never persisted.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nathoo/fabula/engine"
	"github.com/nathoo/fabula/types"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version    string                   `json:"version"`
	Session    uuid.UUID                `json:"session"`
	Turn       int                      `json:"turn"`
	Player     string                   `json:"player"`
	Entities   map[string]*types.Entity `json:"entities"`
	CommandLog []string                 `json:"command_log"`
}

// FormatVersion is bumped when the save layout changes incompatibly.
const FormatVersion = "1"

// Snapshot serializes the engine's mutable state to JSON bytes.
func Snapshot(e *engine.Engine) ([]byte, error) {
	entities := map[string]*types.Entity{}
	for _, id := range e.World.IDs() {
		ent, _ := e.World.Get(id)
		entities[id] = ent
	}
	data := SaveData{
		Version:    FormatVersion,
		Session:    e.SessionID,
		Turn:       e.TurnCount,
		Player:     e.World.Player(),
		Entities:   entities,
		CommandLog: e.CommandLog,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Parse deserializes JSON bytes into SaveData.
func Parse(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("parsing save data: %w", err)
	}
	if sd.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported save version %q", sd.Version)
	}
	if sd.Entities == nil {
		sd.Entities = map[string]*types.Entity{}
	}
	return &sd, nil
}

// Restore replaces the engine's mutable state with the saved snapshot.
// Behavior references are re-validated against the currently loaded module
// set before the world is touched; an entity naming a module that no
// longer exists fails the restore and leaves the current world intact.
func Restore(e *engine.Engine, sd *SaveData) error {
	for id, ent := range sd.Entities {
		for _, name := range ent.Behaviors {
			if _, ok := e.Registry.Module(name); !ok {
				return fmt.Errorf("restoring save: entity %q names unloaded behavior module %q", id, name)
			}
		}
	}
	for _, id := range e.World.IDs() {
		e.World.Remove(id)
	}
	for _, ent := range sd.Entities {
		if err := e.AddEntity(ent); err != nil {
			return fmt.Errorf("restoring save: %w", err)
		}
	}
	e.World.SetPlayer(sd.Player)
	e.SessionID = sd.Session
	e.TurnCount = sd.Turn
	e.CommandLog = sd.CommandLog
	return nil
}
