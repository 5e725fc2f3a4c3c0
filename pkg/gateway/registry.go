package gateway

import "fmt"

// Registry holds one adapter per protocol variant and resolves backend
// gateway identifiers to them.
type Registry struct {
	adapters map[Kind]Adapter
}

// NewRegistry creates a registry from the given adapters. Registering two
// adapters for the same variant panics: that is a wiring bug, not a runtime
// condition.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Kind]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		if _, exists := r.adapters[a.Kind()]; exists {
			panic(fmt.Sprintf("gateway: duplicate adapter for variant %q", a.Kind()))
		}
		r.adapters[a.Kind()] = a
	}
	return r
}

// For resolves the adapter handling the given backend gateway ID.
func (r *Registry) For(gatewayID string) (Adapter, error) {
	kind, ok := VariantFor(gatewayID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVariant, gatewayID)
	}
	adapter, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVariant, gatewayID)
	}
	return adapter, nil
}

// Supported reports whether a backend gateway ID can be handled.
func (r *Registry) Supported(gatewayID string) bool {
	_, err := r.For(gatewayID)
	return err == nil
}
