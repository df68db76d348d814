package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/indoor-coverage-sim/internal/clock"
)

// memoryRepository keeps evaluations in process memory. It is used when no
// Redis endpoint is configured.
type memoryRepository struct {
	mu      sync.RWMutex
	clock   clock.Clock
	records map[string]*EvaluationRecord
	byDep   map[string][]string
}

// NewMemoryRepository creates an in-memory repository. A nil clock uses
// wall time.
func NewMemoryRepository(c clock.Clock) Repository {
	if c == nil {
		c = clock.New()
	}
	return &memoryRepository{
		clock:   c,
		records: make(map[string]*EvaluationRecord),
		byDep:   make(map[string][]string),
	}
}

var _ Repository = (*memoryRepository)(nil)

func (m *memoryRepository) Save(_ context.Context, input SaveInput) (*SaveOutput, error) {
	if err := validateSave(input); err != nil {
		return nil, err
	}

	record := &EvaluationRecord{
		ID:           uuid.NewString(),
		DeploymentID: input.DeploymentID,
		CreatedAt:    m.clock.Now().UTC(),
		Duration:     input.Duration,
		Summary:      input.Summary,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	m.byDep[record.DeploymentID] = append(m.byDep[record.DeploymentID], record.ID)

	copied := *record
	return &SaveOutput{Record: &copied}, nil
}

func (m *memoryRepository) Get(_ context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, fmt.Errorf("%w: evaluation ID cannot be empty", ErrInvalidArgument)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[input.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, input.ID)
	}
	copied := *record
	return &GetOutput{Record: &copied}, nil
}

func (m *memoryRepository) ListByDeployment(_ context.Context, input ListInput) (*ListOutput, error) {
	if input.DeploymentID == "" {
		return nil, fmt.Errorf("%w: deployment ID cannot be empty", ErrInvalidArgument)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byDep[input.DeploymentID]
	out := &ListOutput{Records: make([]*EvaluationRecord, 0, len(ids))}
	for _, id := range ids {
		copied := *m.records[id]
		out.Records = append(out.Records, &copied)
	}
	// Newest first; insertion order breaks ties.
	sort.SliceStable(out.Records, func(i, j int) bool {
		return out.Records[i].CreatedAt.After(out.Records[j].CreatedAt)
	})
	if input.Limit > 0 && len(out.Records) > input.Limit {
		out.Records = out.Records[:input.Limit]
	}
	return out, nil
}

func (m *memoryRepository) DeleteByDeployment(_ context.Context, input DeleteByDeploymentInput) (*DeleteByDeploymentOutput, error) {
	if input.DeploymentID == "" {
		return nil, fmt.Errorf("%w: deployment ID cannot be empty", ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.byDep[input.DeploymentID]
	for _, id := range ids {
		delete(m.records, id)
	}
	delete(m.byDep, input.DeploymentID)
	return &DeleteByDeploymentOutput{Deleted: len(ids)}, nil
}
