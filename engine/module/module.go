// Package module defines the behavior-module model and the handler
// registration table. A module is immutable after load: its capability maps
// (verb → handler, event → function) are built once at construction so
// dispatch never reflects over anything at runtime.
package module

import (
	"github.com/nathoo/fabula/types"
)

// StateAccessor is the state-access contract handed to every handler and
// event function. It is implemented by the engine; modules never touch
// entity fields directly.
type StateAccessor interface {
	// Get returns the entity with the given ID.
	Get(id string) (*types.Entity, bool)

	// Update applies ordered path-addressed changes to an entity. On
	// failure the changes applied before the failing path remain applied.
	Update(id string, changes []types.Change) error

	// InvokeNext delegates to the next-lower-precedence handler for the
	// verb. Only legal while a top-level invocation is active.
	InvokeNext(verb string, cmd types.Command) (types.Result, error)

	// InvokeEvent runs the entity's behavior modules for the named event
	// and composes their verdicts.
	InvokeEvent(entityID string, event string, ctx map[string]any) (types.Outcome, error)

	// Player returns the primary player entity ID.
	Player() string

	// EntitiesAt returns the IDs of entities whose location is the given
	// entity ID, in sorted order.
	EntitiesAt(locationID string) []string

	// FindAt locates an entity at a location by noun and optional
	// adjective modifiers. Returns "" if nothing matches.
	FindAt(locationID, noun string, adjectives []string) string
}

// Handler resolves a top-level verb, fully or partially.
type Handler func(sa StateAccessor, cmd types.Command) (types.Result, error)

// EventFunc reacts to an event on one entity. For world-phase events the
// entity is nil.
type EventFunc func(e *types.Entity, sa StateAccessor, ctx map[string]any) (types.Outcome, error)

// Module is one unit of author-supplied behavior. All fields are fixed at
// construction; the runtime never mutates a loaded module.
type Module struct {
	Name     string
	Vocab    *types.Vocabulary
	Handlers map[string]Handler   // verb → handler
	Events   map[string]EventFunc // event → function
}
