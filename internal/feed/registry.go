package feed

import "sync"

// OpenFeed couples a navigator with the positions its videos occupy in the
// user's full collection. When the feed is opened over a filtered list the
// navigator indexes are dense while the positions are not, so like updates
// must be translated through Positions.
type OpenFeed struct {
	Nav       *Navigator
	Positions []int
}

// Registry keeps at most one open feed per signed-in user. Opening a new feed
// replaces the previous one; the video order inside an open feed never changes.
type Registry struct {
	mu    sync.Mutex
	feeds map[string]*OpenFeed
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*OpenFeed)}
}

// Put replaces the user's open feed.
func (r *Registry) Put(userID string, f *OpenFeed) {
	r.mu.Lock()
	r.feeds[userID] = f
	r.mu.Unlock()
}

// Get returns the user's open feed, if any.
func (r *Registry) Get(userID string) (*OpenFeed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[userID]
	return f, ok
}

// Remove drops the user's open feed, typically on close or sign-out.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.feeds, userID)
	r.mu.Unlock()
}
