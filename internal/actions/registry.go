package actions

import (
	"fmt"

	"github.com/firecorners/cornerd/internal/domain"
)

// Registry holds all supported action kinds.
type Registry struct {
	kinds map[domain.ActionType]Kind
}

// NewRegistry creates a registry with the four built-in kinds.
func NewRegistry() *Registry {
	return NewRegistryWithKinds(
		NewURLKind(),
		NewAppKind(),
		NewShellKind(),
		NewScriptKind(),
	)
}

// NewRegistryWithKinds creates a registry with custom kinds (for testing).
func NewRegistryWithKinds(kinds ...Kind) *Registry {
	r := &Registry{
		kinds: make(map[domain.ActionType]Kind),
	}
	for _, k := range kinds {
		r.Register(k)
	}
	return r
}

// Register adds a kind to the registry.
func (r *Registry) Register(k Kind) {
	r.kinds[k.Type()] = k
}

// Get returns a kind by type.
func (r *Registry) Get(t domain.ActionType) (Kind, bool) {
	k, ok := r.kinds[t]
	return k, ok
}

// GetAll returns all registered kinds in canonical order.
func (r *Registry) GetAll() []Kind {
	result := make([]Kind, 0, len(r.kinds))
	for _, t := range domain.AllActionTypes {
		if k, ok := r.kinds[t]; ok {
			result = append(result, k)
		}
	}
	return result
}

// List returns the registered action types in canonical order.
func (r *Registry) List() []domain.ActionType {
	kinds := r.GetAll()
	types := make([]domain.ActionType, len(kinds))
	for i, k := range kinds {
		types[i] = k.Type()
	}
	return types
}

// Validate applies the generic action rules and then the kind's own rules.
// It returns the kind to dispatch to when the action is valid.
func (r *Registry) Validate(action domain.Action) (Kind, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	k, ok := r.kinds[action.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", domain.ErrUnknownActionType, string(action.Type))
	}
	if err := k.Validate(action.Value); err != nil {
		return nil, err
	}
	return k, nil
}
