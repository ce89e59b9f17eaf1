// Package types defines the shared data structures for the Fabula runtime.
// This package contains only type definitions — no logic, no methods.
package types

// Command is the normalized player command handed to the dispatch core.
// The dispatch core treats everything except Verb as opaque.
type Command struct {
	Verb           string
	Object         string   // optional
	IndirectObject string   // optional
	Adjectives     []string // optional modifiers on Object
	Preposition    string   // optional
	Actor          string   // acting entity ID; empty means the player
	Raw            string   // original input line, for logging
}

// Result is what a command handler returns.
type Result struct {
	Success bool
	Message string
}

// Outcome is what an entity event function returns. A denial (Allow=false)
// is a normal negative result, not an error.
type Outcome struct {
	Allow   bool
	Message string
}

// Entity is the single generic record type for every game object: item,
// actor, location, connector. Kinds differ only by which Props are set.
// Cross-references between entities are plain ID strings.
type Entity struct {
	ID        string
	Name      string
	Props     map[string]any // open-ended property bag; values may nest
	Behaviors []string       // ordered behavior-module names
}

// Change is one path-addressed mutation. Paths are dot-separated bag keys;
// a leading '+' appends to the list at the path, a leading '-' removes the
// first matching value from it.
type Change struct {
	Path  string
	Value any
}

// Object-requirement values for verbs.
const (
	ObjectOptional  = "optional"
	ObjectRequired  = "required"
	ObjectForbidden = "forbidden"
)

// Grammatical roles a vocabulary word may hold. A word may hold several.
const (
	RoleVerb      = "verb"
	RoleNoun      = "noun"
	RoleAdjective = "adjective"
)

// VerbDef is a module's vocabulary entry for one verb.
type VerbDef struct {
	Word     string
	Synonyms []string
	Event    string // symbolic event name fired for this verb
	Object   string // ObjectRequired, ObjectForbidden, or ObjectOptional
}

// WordDef is a module's vocabulary entry for a noun or adjective.
type WordDef struct {
	Word     string
	Synonyms []string
	Role     string // RoleNoun or RoleAdjective
}

// Vocabulary is a module's full vocabulary contribution.
type Vocabulary struct {
	Verbs []VerbDef
	Words []WordDef
	Hooks map[string]string // turn-phase hook name → event name
}
