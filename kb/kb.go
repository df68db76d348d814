package kb

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

// ErrDeploymentNotFound is returned when a deployment ID is unknown.
var ErrDeploymentNotFound = errors.New("deployment not found")

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventDeploymentCreated EventType = iota
	EventDeploymentUpdated
	EventDeploymentDeleted
)

func (t EventType) String() string {
	switch t {
	case EventDeploymentCreated:
		return "created"
	case EventDeploymentUpdated:
		return "updated"
	case EventDeploymentDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when a deployment changes.
type Event struct {
	Type         EventType
	DeploymentID string
	// Scenario is nil for deletions.
	Scenario *core.Scenario
}

// KnowledgeBase is an in-memory, thread-safe store of candidate AP
// deployments keyed by ID.
type KnowledgeBase struct {
	mu sync.RWMutex

	deployments map[string]*core.Scenario

	nextSub int
	subs    map[int]func(Event)
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		deployments: make(map[string]*core.Scenario),
		subs:        make(map[int]func(Event)),
	}
}

// PutDeployment validates s and stores it under id, replacing any existing
// deployment with the same ID. It reports whether the deployment was new.
func (kb *KnowledgeBase) PutDeployment(id string, s *core.Scenario) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: empty deployment id", core.ErrInvalidConfiguration)
	}
	if err := s.Validate(); err != nil {
		return false, err
	}

	kb.mu.Lock()
	_, exists := kb.deployments[id]
	kb.deployments[id] = s
	event := Event{Type: EventDeploymentCreated, DeploymentID: id, Scenario: s}
	if exists {
		event.Type = EventDeploymentUpdated
	}
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return !exists, nil
}

// GetDeployment returns the deployment with the given ID.
func (kb *KnowledgeBase) GetDeployment(id string) (*core.Scenario, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	s, ok := kb.deployments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDeploymentNotFound, id)
	}
	return s, nil
}

// ListDeploymentIDs returns all deployment IDs in sorted order.
func (kb *KnowledgeBase) ListDeploymentIDs() []string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	ids := maps.Keys(kb.deployments)
	slices.Sort(ids)
	return ids
}

// Len returns the number of stored deployments.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.deployments)
}

// DeleteDeployment removes a deployment and notifies subscribers.
func (kb *KnowledgeBase) DeleteDeployment(id string) error {
	kb.mu.Lock()
	if _, ok := kb.deployments[id]; !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDeploymentNotFound, id)
	}
	delete(kb.deployments, id)
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	event := Event{Type: EventDeploymentDeleted, DeploymentID: id}
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

func (kb *KnowledgeBase) snapshotSubsLocked() []func(Event) {
	keys := maps.Keys(kb.subs)
	slices.Sort(keys)
	out := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		out = append(out, kb.subs[k])
	}
	return out
}

// Subscribe registers a callback for KB events. Callbacks run in
// subscription order. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	id := kb.nextSub
	kb.nextSub++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}
