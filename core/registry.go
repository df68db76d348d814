package core

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// Registry is an ordered collection of access points. Iteration order is
// insertion order, which the combination engine relies on to break ties.
//
// Duplicate IDs are rejected at insertion time.
type Registry struct {
	mu sync.RWMutex

	order []string
	aps   map[string]model.AccessPoint
}

// NewRegistry builds a registry from aps, preserving their order.
func NewRegistry(aps ...model.AccessPoint) (*Registry, error) {
	r := &Registry{aps: make(map[string]model.AccessPoint, len(aps))}
	for _, ap := range aps {
		if err := r.Add(ap); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends an AP to the registry.
func (r *Registry) Add(ap model.AccessPoint) error {
	if ap.ID == "" {
		return fmt.Errorf("%w: access point with empty id", ErrInvalidConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.aps == nil {
		r.aps = make(map[string]model.AccessPoint)
	}
	if _, exists := r.aps[ap.ID]; exists {
		return fmt.Errorf("%w: %q", ErrAccessPointExists, ap.ID)
	}
	r.aps[ap.ID] = ap
	r.order = append(r.order, ap.ID)
	return nil
}

// Get returns the AP with the given ID.
func (r *Registry) Get(id string) (model.AccessPoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ap, ok := r.aps[id]
	return ap, ok
}

// Remove deletes an AP, keeping the relative order of the rest.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.aps[id]; !ok {
		return fmt.Errorf("%w: %q", ErrAccessPointMiss, id)
	}
	delete(r.aps, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns a snapshot of the APs in registry order.
func (r *Registry) List() []model.AccessPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.AccessPoint, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.aps[id])
	}
	return out
}

// Len returns the number of registered APs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
