package state

import "sync"

// Registry keeps one state store per signed-in user.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// ForUser returns the user's store, creating one if none exists.
func (r *Registry) ForUser(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[userID]; ok {
		return s
	}
	s := NewStore()
	r.stores[userID] = s
	return s
}

// Remove drops the user's store, typically on sign-out.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.stores, userID)
	r.mu.Unlock()
}
