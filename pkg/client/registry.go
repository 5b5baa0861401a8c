package client

import (
	"iter"
	"sync"
)

// Registry is the set of currently open peers.
// A peer is a member from Add until Remove; Remove of
// an absent peer is a no-op.
type Registry struct {
	mu    sync.RWMutex
	peers map[Peer]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		peers: map[Peer]struct{}{},
	}
}

func (r *Registry) Add(p Peer) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p] = struct{}{}
}

// Remove reports whether p was a member.
func (r *Registry) Remove(p Peer) bool {
	if p == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[p]; !ok {
		return false
	}
	delete(r.peers, p)
	return true
}

func (r *Registry) Has(p Peer) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.peers[p]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Others returns the members other than excluding, as of the moment
// Others is called. The sequence may be iterated any number of times
// and does not observe later Add or Remove calls.
func (r *Registry) Others(excluding Peer) iter.Seq[Peer] {
	snapshot := r.snapshot(excluding)
	return func(yield func(Peer) bool) {
		for _, p := range snapshot {
			if !yield(p) {
				return
			}
		}
	}
}

// All returns every member, like Others(nil).
func (r *Registry) All() iter.Seq[Peer] {
	return r.Others(nil)
}

func (r *Registry) snapshot(excluding Peer) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Peer, 0, len(r.peers))
	for p := range r.peers {
		if p != excluding {
			out = append(out, p)
		}
	}
	return out
}
