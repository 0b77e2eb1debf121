package core

import "sync"

// AdultRoster is this Elder's live view of the section's Adult tier,
// maintained from overlay membership events. ChunkHandler consults it for
// the candidate set ClosestHolders picks target holders from; it is the
// only source of truth for "who is currently around to store a chunk."
type AdultRoster struct {
	mu      sync.RWMutex
	members map[NodeID]struct{}
}

// NewAdultRoster starts an empty roster.
func NewAdultRoster() *AdultRoster {
	return &AdultRoster{members: make(map[NodeID]struct{})}
}

// Add records node as a currently-live Adult.
func (r *AdultRoster) Add(node NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[node] = struct{}{}
}

// Remove drops node, e.g. once the overlay reports it lost.
func (r *AdultRoster) Remove(node NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, node)
}

// Snapshot returns every currently-live member, in no particular order;
// callers that need a deterministic order (ClosestHolders) sort it.
func (r *AdultRoster) Snapshot() []NodeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NodeID, 0, len(r.members))
	for n := range r.members {
		out = append(out, n)
	}
	return out
}
