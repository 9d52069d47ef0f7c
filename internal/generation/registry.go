package generation

import "sync"

// WorkflowFactory builds a workflow for a newly seen user.
type WorkflowFactory func(userID string, isPro bool) *Workflow

// Registry hands out one workflow per signed-in user, creating it on demand.
type Registry struct {
	mu        sync.Mutex
	workflows map[string]*Workflow
	factory   WorkflowFactory
}

// NewRegistry constructs a registry using the provided factory.
func NewRegistry(factory WorkflowFactory) *Registry {
	if factory == nil {
		panic("generation: workflow factory must not be nil")
	}
	return &Registry{
		workflows: make(map[string]*Workflow),
		factory:   factory,
	}
}

// ForUser returns the user's workflow, creating one if none exists. The tier
// limit is fixed at creation; a mid-session subscription change does not
// re-derive it.
func (r *Registry) ForUser(userID string, isPro bool) *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workflows[userID]; ok {
		return w
	}
	w := r.factory(userID, isPro)
	r.workflows[userID] = w
	return w
}

// Get returns the user's workflow without creating one. Read-only callers use
// this so a placeholder tier never gets pinned before the first upload.
func (r *Registry) Get(userID string) (*Workflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workflows[userID]
	return w, ok
}

// Remove drops the user's workflow, typically on sign-out.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.workflows, userID)
	r.mu.Unlock()
}
