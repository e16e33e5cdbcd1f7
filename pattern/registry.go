package pattern

import (
	"fmt"
	"sync"

	"github.com/ytget/streamdec/types"
)

// Registry maps each PatternType to its single definition, preserving
// registration order for the dispatcher's fallback chain. Registration
// normally happens once at bootstrap; the lock covers deployments that
// register concurrently with lookups.
type Registry struct {
	mu    sync.RWMutex
	byTyp map[types.PatternType]types.PatternDefinition
	order []types.PatternType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byTyp: make(map[types.PatternType]types.PatternDefinition)}
}

// Register adds a definition. Registering a duplicate type is an error.
func (r *Registry) Register(def types.PatternDefinition) error {
	if def.Type == "" {
		return fmt.Errorf("pattern definition has empty type")
	}
	if def.Detector == nil || def.Decoder == nil {
		return fmt.Errorf("pattern definition %q missing detector or decoder", def.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTyp[def.Type]; exists {
		return fmt.Errorf("pattern type %q already registered", def.Type)
	}
	r.byTyp[def.Type] = def
	r.order = append(r.order, def.Type)
	return nil
}

// Get returns the definition for a type.
func (r *Registry) Get(typ types.PatternType) (types.PatternDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byTyp[typ]
	return def, ok
}

// Has reports whether a type is registered.
func (r *Registry) Has(typ types.PatternType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byTyp[typ]
	return ok
}

// Types returns all registered types in registration order.
func (r *Registry) Types() []types.PatternType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.PatternType, len(r.order))
	copy(out, r.order)
	return out
}

// All returns all definitions in registration order.
func (r *Registry) All() []types.PatternDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.PatternDefinition, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.byTyp[typ])
	}
	return out
}

// Unregister removes a type, reporting whether it was present.
func (r *Registry) Unregister(typ types.PatternType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTyp[typ]; !ok {
		return false
	}
	delete(r.byTyp, typ)
	for i, t := range r.order {
		if t == typ {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every definition.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTyp = make(map[types.PatternType]types.PatternDefinition)
	r.order = nil
}

// Size returns the number of registered definitions.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTyp)
}
