// Package store persists evaluation results so they can be fetched after the
// RPC that produced them has returned.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=storemock github.com/signalsfoundry/indoor-coverage-sim/internal/store Repository

var (
	// ErrNotFound is returned when an evaluation ID is unknown or expired.
	ErrNotFound = errors.New("evaluation not found")
	// ErrInvalidArgument is returned for missing IDs or summaries.
	ErrInvalidArgument = errors.New("invalid argument")
)

// EvaluationRecord is a stored evaluation summary. Grids are not stored;
// they are cheap to recompute and large to keep.
type EvaluationRecord struct {
	ID           string        `json:"id"`
	DeploymentID string        `json:"deployment_id"`
	CreatedAt    time.Time     `json:"created_at"`
	Duration     time.Duration `json:"duration"`
	Summary      *core.Summary `json:"summary"`
}

// SaveInput contains parameters for storing an evaluation.
type SaveInput struct {
	DeploymentID string
	Duration     time.Duration
	Summary      *core.Summary
}

// SaveOutput contains the stored record with its assigned ID.
type SaveOutput struct {
	Record *EvaluationRecord
}

// GetInput identifies an evaluation.
type GetInput struct {
	ID string
}

// GetOutput contains the requested evaluation.
type GetOutput struct {
	Record *EvaluationRecord
}

// ListInput selects the evaluations of one deployment. Limit <= 0 means
// no limit. Limit counts live records: expired evaluations are skipped and
// do not use up the limit.
type ListInput struct {
	DeploymentID string
	Limit        int
}

// ListOutput contains evaluations, newest first.
type ListOutput struct {
	Records []*EvaluationRecord
}

// DeleteByDeploymentInput selects the deployment whose history is dropped.
type DeleteByDeploymentInput struct {
	DeploymentID string
}

// DeleteByDeploymentOutput reports how many evaluations were removed.
type DeleteByDeploymentOutput struct {
	Deleted int
}

// Repository defines evaluation storage operations.
type Repository interface {
	// Save stores a new evaluation and assigns its ID.
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)

	// Get retrieves an evaluation by ID.
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// ListByDeployment returns a deployment's evaluations, newest first.
	ListByDeployment(ctx context.Context, input ListInput) (*ListOutput, error)

	// DeleteByDeployment removes every evaluation of a deployment.
	DeleteByDeployment(ctx context.Context, input DeleteByDeploymentInput) (*DeleteByDeploymentOutput, error)
}

func validateSave(input SaveInput) error {
	if input.DeploymentID == "" {
		return fmt.Errorf("%w: deployment ID cannot be empty", ErrInvalidArgument)
	}
	if input.Summary == nil {
		return fmt.Errorf("%w: summary cannot be nil", ErrInvalidArgument)
	}
	return nil
}
