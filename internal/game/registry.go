package game

import (
	"fmt"
	"sort"
	"sync"

	"duel-game-bot/internal/model"
)

// Registry maps each variant to the engine that plays it.
// It is safe for concurrent use.
type Registry struct {
	engines map[model.Variant]Engine
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[model.Variant]Engine),
	}
}

// Register adds an engine. A second engine for the same variant replaces
// the first.
func (r *Registry) Register(e Engine) error {
	if e == nil {
		return fmt.Errorf("cannot register nil engine")
	}
	if e.Variant() == "" {
		return fmt.Errorf("engine variant cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Variant()] = e
	return nil
}

// Get retrieves the engine for a variant.
func (r *Registry) Get(v model.Variant) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[v]
	return e, ok
}

// Variants returns the registered variants sorted by name.
func (r *Registry) Variants() []model.Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	variants := make([]model.Variant, 0, len(r.engines))
	for v := range r.engines {
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
	return variants
}

// Count returns the number of registered engines.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// ParseMove decodes payload for variant v. The forfeit payload is handled
// here so engines only see their own moves.
func (r *Registry) ParseMove(v model.Variant, payload string) (Move, error) {
	if payload == ForfeitPayload {
		return Forfeit{}, nil
	}
	e, ok := r.Get(v)
	if !ok {
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidMove, v)
	}
	return e.ParseMove(payload)
}
