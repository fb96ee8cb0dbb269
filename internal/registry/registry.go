// Package registry implements the pending-call registry from spec.md
// §4.2: a mutex-guarded map from outbound request id to a one-shot
// completion slot, shared between the issuing context (any caller
// goroutine) and the dispatch context (the socket's inbound callback).
package registry

import (
	"sync"

	"go.uber.org/zap"
)

// Registry maps in-flight request ids to their completion slots.
type Registry struct {
	mu      sync.Mutex
	pending map[uint32]*Slot
	log     *zap.Logger
}

// New constructs an empty registry. A nil logger defaults to a no-op
// logger, mirroring the teacher's log.New(os.Stdout, ...) default.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		pending: make(map[uint32]*Slot),
		log:     log,
	}
}

// Insert registers slot under id. Per spec.md §4.2, overwriting an
// existing id is a bug condition: it is logged loudly but the new
// slot still wins, matching §7's "double-insertion into the registry
// ... logged loudly but non-terminating."
func (r *Registry) Insert(id uint32, slot *Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pending[id]; exists {
		r.log.Error("registry: overwriting in-flight request id", zap.Uint32("request_id", id))
	}
	r.pending[id] = slot
}

// Take atomically finds and removes the slot registered under id.
func (r *Registry) Take(id uint32) (*Slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return slot, ok
}

// Remove deletes id without returning its slot, used on the
// send-failure path after the slot has already been resolved inline
// (spec.md §4.3: "Removal on send-failure occurs after the slot is
// resolved").
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// Len reports the number of in-flight requests, exposed for metrics
// and tests; it is not part of the core contract.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// TakeAll empties the registry and returns every slot that was still
// pending, used by ObjectProxy's FailPending close policy (spec.md §9
// open question on close semantics).
func (r *Registry) TakeAll() []*Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Slot, 0, len(r.pending))
	for id, slot := range r.pending {
		out = append(out, slot)
		delete(r.pending, id)
	}
	return out
}
