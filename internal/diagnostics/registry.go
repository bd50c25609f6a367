package diagnostics

import (
	"sort"
	"sync"
)

// Registry holds at most one pending Request per command name.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*Request
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]*Request),
	}
}

// Put stores req under name, overwriting any existing entry.
// It returns the evicted request, or nil.
func (r *Registry) Put(name string, req *Request) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.pending[name]
	r.pending[name] = req
	return prev
}

// PutIfAbsent stores req under name only if the slot is free.
// It returns the current occupant and false when the slot is taken.
func (r *Registry) PutIfAbsent(name string, req *Request) (*Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.pending[name]; ok {
		return cur, false
	}
	r.pending[name] = req
	return req, true
}

// Get returns the pending request for name.
func (r *Registry) Get(name string) (*Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.pending[name]
	return req, ok
}

// Erase removes the entry for name.
func (r *Registry) Erase(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, name)
}

// EraseIfOwner removes the entry for name only if it is req.
// It reports whether an entry was removed.
func (r *Registry) EraseIfOwner(name string, req *Request) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending[name] != req {
		return false
	}
	delete(r.pending, name)
	return true
}

// Len returns the number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}

// Snapshot returns info for every pending request, sorted by command name.
func (r *Registry) Snapshot() []RequestInfo {
	r.mu.Lock()
	reqs := make([]*Request, 0, len(r.pending))
	for _, req := range r.pending {
		reqs = append(reqs, req)
	}
	r.mu.Unlock()

	out := make([]RequestInfo, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, req.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Command < out[j].Command
	})
	return out
}
