package module

import (
	"fmt"
	"sort"
)

// Registration is one entry in a verb's delegation chain.
type Registration struct {
	Handler Handler
	Module  string
	Tier    int
}

// TierConflictError reports two modules registering a handler for the same
// verb at the same tier.
type TierConflictError struct {
	Verb    string
	Tier    int
	ModuleA string
	ModuleB string
}

func (e *TierConflictError) Error() string {
	return fmt.Sprintf("verb %q: modules %q and %q both register a handler at tier %d",
		e.Verb, e.ModuleA, e.ModuleB, e.Tier)
}

// Registry records loaded modules and the per-verb handler chains.
// Built once at load time, read-only afterwards.
type Registry struct {
	modules  map[string]*Module
	order    []string                  // module names in load order
	handlers map[string][]Registration // verb → chain, tier asc then load order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules:  map[string]*Module{},
		handlers: map[string][]Registration{},
	}
}

// Load registers a module at the given precedence tier (lower = higher
// precedence). It fails if the module name is already taken or if any of
// the module's verbs is already handled at the same tier.
func (r *Registry) Load(m *Module, tier int) error {
	if m.Name == "" {
		return fmt.Errorf("module has no name")
	}
	if tier < 1 {
		return fmt.Errorf("module %q: tier must be a positive integer, got %d", m.Name, tier)
	}
	if _, ok := r.modules[m.Name]; ok {
		return fmt.Errorf("module %q already loaded", m.Name)
	}

	// Within-tier conflicts abort before anything is registered, so a
	// failed Load leaves the registry untouched.
	for verb := range m.Handlers {
		for _, reg := range r.handlers[verb] {
			if reg.Tier == tier {
				return &TierConflictError{Verb: verb, Tier: tier, ModuleA: reg.Module, ModuleB: m.Name}
			}
		}
	}

	r.modules[m.Name] = m
	r.order = append(r.order, m.Name)

	verbs := make([]string, 0, len(m.Handlers))
	for verb := range m.Handlers {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs) // map order is random; keep registration deterministic

	for _, verb := range verbs {
		chain := append(r.handlers[verb], Registration{
			Handler: m.Handlers[verb],
			Module:  m.Name,
			Tier:    tier,
		})
		// Stable sort preserves load order within a tier.
		sort.SliceStable(chain, func(i, j int) bool { return chain[i].Tier < chain[j].Tier })
		r.handlers[verb] = chain
	}
	return nil
}

// HandlerChain returns the delegation chain for a verb, ordered by tier
// ascending then load order. Nil if no module handles the verb.
func (r *Registry) HandlerChain(verb string) []Registration {
	return r.handlers[verb]
}

// Module returns a loaded module by name.
func (r *Registry) Module(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Modules returns all loaded modules in load order.
func (r *Registry) Modules() []*Module {
	out := make([]*Module, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.modules[name])
	}
	return out
}

// Names returns the loaded module names in load order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// EventExporters returns the modules exporting the named event, in load
// order. Used for world-phase events, which are not scoped to one entity.
func (r *Registry) EventExporters(event string) []*Module {
	var out []*Module
	for _, name := range r.order {
		m := r.modules[name]
		if _, ok := m.Events[event]; ok {
			out = append(out, m)
		}
	}
	return out
}
