// internal/rules/registry.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/factkeeper/internal/types"
)

// Registry is the lookup table of declared facts for one run.
// Conditions reference facts by name; the registry is the single source of
// truth for which names exist and what type their values have.
type Registry struct {
	facts  []types.FactDefinition
	byName map[string]types.FactDefinition
}

// NewRegistry indexes facts by name.
// Returns ErrDuplicateFactName when two facts share a case-insensitive name,
// since the effective value environment would be ambiguous.
func NewRegistry(facts []types.FactDefinition) (*Registry, error) {
	r := &Registry{
		facts:  append([]types.FactDefinition(nil), facts...),
		byName: make(map[string]types.FactDefinition, len(facts)),
	}
	seen := make(map[string]string, len(facts))
	for _, f := range facts {
		key := strings.ToLower(f.Name)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q", types.ErrDuplicateFactName, prev, f.Name)
		}
		seen[key] = f.Name
		r.byName[f.Name] = f
	}
	return r, nil
}

// Lookup returns the fact declared under name (exact match).
func (r *Registry) Lookup(name string) (types.FactDefinition, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Has reports whether a fact named name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns declared fact names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.facts))
	for i, f := range r.facts {
		names[i] = f.Name
	}
	return names
}

// Facts returns a copy of the declared facts.
func (r *Registry) Facts() []types.FactDefinition {
	return append([]types.FactDefinition(nil), r.facts...)
}

// Environment resolves the effective value of every declared fact:
// the supplied value, else the fact's default, else the type's zero value.
// A supplied nil falls through to the default. Values not naming a declared
// fact are ignored.
func (r *Registry) Environment(values map[string]any) map[string]any {
	env := make(map[string]any, len(r.facts))
	for _, f := range r.facts {
		v, ok := values[f.Name]
		switch {
		case ok && v != nil:
			env[f.Name] = Normalize(v)
		case f.DefaultValue != nil:
			env[f.Name] = Normalize(f.DefaultValue)
		default:
			env[f.Name] = types.ZeroValue(f.Type)
		}
	}
	return env
}

// DefaultValues returns the value every fact takes when nothing is supplied.
// Used to pre-fill fact value forms.
func (r *Registry) DefaultValues() map[string]any {
	return r.Environment(nil)
}
