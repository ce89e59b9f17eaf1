// Package vocab merges per-module vocabulary contributions into one word
// table. Merging happens once at load time; the registry is read-only
// afterwards. Conflicts between modules are load errors, never warnings.
package vocab

import (
	"fmt"

	"github.com/nathoo/fabula/types"
)

// Entry is the merged record for one canonical word. Roles is a set: a word
// contributed as a noun by one module and an adjective by another carries
// both roles, and consumers must test membership, not equality.
type Entry struct {
	Word        string
	Synonyms    []string
	Roles       map[string]bool
	Event       string // verbs only: bound event name
	Object      string // verbs only: object requirement
	Modules     []string
	eventModule string // module that bound Event; Modules also holds noun/adjective contributors
}

// VerbConflictError reports two modules binding the same verb to different
// events.
type VerbConflictError struct {
	Word            string
	ModuleA, EventA string
	ModuleB, EventB string
}

func (e *VerbConflictError) Error() string {
	return fmt.Sprintf("verb %q: module %q binds event %q but module %q binds event %q",
		e.Word, e.ModuleA, e.EventA, e.ModuleB, e.EventB)
}

// HookConflictError reports two modules binding different events to the
// same turn-phase hook.
type HookConflictError struct {
	Hook            string
	ModuleA, EventA string
	ModuleB, EventB string
}

func (e *HookConflictError) Error() string {
	return fmt.Sprintf("hook %q: module %q binds event %q but module %q binds event %q",
		e.Hook, e.ModuleA, e.EventA, e.ModuleB, e.EventB)
}

type hookBinding struct {
	event  string
	module string
}

// Registry is the merged vocabulary for one loaded module set.
type Registry struct {
	entries    map[string]*Entry
	synonyms   map[string]string // synonym → canonical word
	hooks      map[string]hookBinding
	knownHooks map[string]bool
}

// New creates an empty registry. knownHooks is the runtime's fixed hook
// list; modules may only bind events to those names.
func New(knownHooks []string) *Registry {
	kh := make(map[string]bool, len(knownHooks))
	for _, h := range knownHooks {
		kh[h] = true
	}
	return &Registry{
		entries:    map[string]*Entry{},
		synonyms:   map[string]string{},
		hooks:      map[string]hookBinding{},
		knownHooks: kh,
	}
}

// MergeModule merges one module's vocabulary contribution. A nil vocabulary
// is a valid empty contribution. Any returned error aborts module loading.
func (r *Registry) MergeModule(moduleName string, v *types.Vocabulary) error {
	if v == nil {
		return nil
	}

	for _, vd := range v.Verbs {
		if err := r.mergeVerb(moduleName, vd); err != nil {
			return err
		}
	}
	for _, wd := range v.Words {
		if err := r.mergeWord(moduleName, wd); err != nil {
			return err
		}
	}
	for hook, event := range v.Hooks {
		if err := r.bindHook(moduleName, hook, event); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) mergeVerb(moduleName string, vd types.VerbDef) error {
	if vd.Word == "" {
		return fmt.Errorf("module %q: verb entry missing canonical word", moduleName)
	}
	if vd.Event == "" {
		return fmt.Errorf("module %q: verb %q missing event name", moduleName, vd.Word)
	}
	obj := vd.Object
	if obj == "" {
		obj = types.ObjectOptional
	}
	switch obj {
	case types.ObjectOptional, types.ObjectRequired, types.ObjectForbidden:
	default:
		return fmt.Errorf("module %q: verb %q has invalid object requirement %q",
			moduleName, vd.Word, vd.Object)
	}

	entry, ok := r.entries[vd.Word]
	if !ok {
		entry = &Entry{
			Word:   vd.Word,
			Roles:  map[string]bool{},
			Event:  vd.Event,
			Object: obj,
		}
		r.entries[vd.Word] = entry
	}

	if entry.Roles[types.RoleVerb] && entry.Event != vd.Event {
		// Same verb, different events: a genuine conflict. Same event is
		// agreement — the first object requirement stands.
		return &VerbConflictError{
			Word:    vd.Word,
			ModuleA: entry.eventModule, EventA: entry.Event,
			ModuleB: moduleName, EventB: vd.Event,
		}
	}
	if !entry.Roles[types.RoleVerb] {
		entry.Event = vd.Event
		entry.Object = obj
		entry.eventModule = moduleName
	}
	entry.Roles[types.RoleVerb] = true
	entry.Modules = append(entry.Modules, moduleName)

	return r.addSynonyms(moduleName, entry, vd.Synonyms)
}

func (r *Registry) mergeWord(moduleName string, wd types.WordDef) error {
	if wd.Word == "" {
		return fmt.Errorf("module %q: word entry missing canonical word", moduleName)
	}
	switch wd.Role {
	case types.RoleNoun, types.RoleAdjective:
	default:
		return fmt.Errorf("module %q: word %q has invalid role %q", moduleName, wd.Word, wd.Role)
	}

	entry, ok := r.entries[wd.Word]
	if !ok {
		entry = &Entry{Word: wd.Word, Roles: map[string]bool{}}
		r.entries[wd.Word] = entry
	}
	entry.Roles[wd.Role] = true
	entry.Modules = append(entry.Modules, moduleName)

	return r.addSynonyms(moduleName, entry, wd.Synonyms)
}

func (r *Registry) addSynonyms(moduleName string, entry *Entry, synonyms []string) error {
	for _, syn := range synonyms {
		if syn == "" || syn == entry.Word {
			continue
		}
		if existing, ok := r.synonyms[syn]; ok {
			if existing != entry.Word {
				return fmt.Errorf("module %q: synonym %q already bound to %q, cannot rebind to %q",
					moduleName, syn, existing, entry.Word)
			}
			continue
		}
		r.synonyms[syn] = entry.Word
		entry.Synonyms = append(entry.Synonyms, syn)
	}
	return nil
}

func (r *Registry) bindHook(moduleName, hook, event string) error {
	if !r.knownHooks[hook] {
		return fmt.Errorf("module %q: unknown turn-phase hook %q", moduleName, hook)
	}
	if event == "" {
		return fmt.Errorf("module %q: hook %q bound to empty event", moduleName, hook)
	}
	if existing, ok := r.hooks[hook]; ok {
		if existing.event != event {
			return &HookConflictError{
				Hook:    hook,
				ModuleA: existing.module, EventA: existing.event,
				ModuleB: moduleName, EventB: event,
			}
		}
		return nil
	}
	r.hooks[hook] = hookBinding{event: event, module: moduleName}
	return nil
}

// Canonical resolves a word through synonyms to its canonical form.
// Unknown words resolve to themselves.
func (r *Registry) Canonical(word string) string {
	if canon, ok := r.synonyms[word]; ok {
		return canon
	}
	return word
}

// Lookup returns the merged entry for a word, resolving synonyms.
func (r *Registry) Lookup(word string) (*Entry, bool) {
	e, ok := r.entries[r.Canonical(word)]
	return e, ok
}

// HasRole reports whether a word carries the given grammatical role.
func (r *Registry) HasRole(word, role string) bool {
	e, ok := r.Lookup(word)
	return ok && e.Roles[role]
}

// VerbEvent returns the event bound to a verb word.
func (r *Registry) VerbEvent(verb string) (string, bool) {
	e, ok := r.Lookup(verb)
	if !ok || !e.Roles[types.RoleVerb] {
		return "", false
	}
	return e.Event, true
}

// ObjectRule returns the object requirement for a verb word.
func (r *Registry) ObjectRule(verb string) (string, bool) {
	e, ok := r.Lookup(verb)
	if !ok || !e.Roles[types.RoleVerb] {
		return "", false
	}
	return e.Object, true
}

// EventForHook returns the event bound to a turn-phase hook, if any.
func (r *Registry) EventForHook(hook string) (string, bool) {
	b, ok := r.hooks[hook]
	if !ok {
		return "", false
	}
	return b.event, true
}
