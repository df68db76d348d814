package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/signalsfoundry/indoor-coverage-sim/internal/clock"
	redisclient "github.com/signalsfoundry/indoor-coverage-sim/internal/redis"
)

const (
	// Key patterns:
	//   coverage:evaluation:{id}                    JSON record
	//   coverage:deployment:{deployment}:evaluations sorted set of IDs by creation time
	evaluationKeyPrefix = "coverage:evaluation:"
	deploymentKeyPrefix = "coverage:deployment:"
)

// Config holds the configuration for the Redis repository.
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
	// TTL expires records after the given duration; zero keeps them forever.
	TTL time.Duration
}

// Validate ensures all required dependencies are provided.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidArgument)
	}
	if c.Client == nil {
		return fmt.Errorf("%w: redis client is required", ErrInvalidArgument)
	}
	if c.Clock == nil {
		return fmt.Errorf("%w: clock is required", ErrInvalidArgument)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: ttl cannot be negative", ErrInvalidArgument)
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
	ttl    time.Duration
	newID  func() string
}

// NewRedisRepository creates a new Redis-backed evaluation repository.
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
		ttl:    cfg.TTL,
		newID:  uuid.NewString,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if err := validateSave(input); err != nil {
		return nil, err
	}

	record := &EvaluationRecord{
		ID:           r.newID(),
		DeploymentID: input.DeploymentID,
		CreatedAt:    r.clock.Now().UTC(),
		Duration:     input.Duration,
		Summary:      input.Summary,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	indexKey := deploymentKey(record.DeploymentID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, evaluationKey(record.ID), data, r.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(record.CreatedAt.UnixNano()),
			Member: record.ID,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store evaluation in Redis: %w", err)
	}

	return &SaveOutput{Record: record}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, fmt.Errorf("%w: evaluation ID cannot be empty", ErrInvalidArgument)
	}

	data, err := r.client.Get(ctx, evaluationKey(input.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, input.ID)
		}
		return nil, fmt.Errorf("failed to get evaluation from Redis: %w", err)
	}

	var record EvaluationRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation: %w", err)
	}
	return &GetOutput{Record: &record}, nil
}

func (r *redisRepository) ListByDeployment(ctx context.Context, input ListInput) (*ListOutput, error) {
	if input.DeploymentID == "" {
		return nil, fmt.Errorf("%w: deployment ID cannot be empty", ErrInvalidArgument)
	}

	indexKey := deploymentKey(input.DeploymentID)
	page := int64(input.Limit)
	out := &ListOutput{}
	for start := int64(0); ; {
		stop := int64(-1)
		if page > 0 {
			stop = start + page - 1
		}
		ids, err := r.client.ZRevRange(ctx, indexKey, start, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list evaluations: %w", err)
		}
		if len(ids) == 0 {
			return out, nil
		}

		records, expired, err := r.fetchRecords(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(expired) > 0 {
			if err := r.client.ZRem(ctx, indexKey, expired...).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune expired evaluations: %w", err)
			}
		}
		for _, rec := range records {
			if input.Limit > 0 && len(out.Records) == input.Limit {
				return out, nil
			}
			out.Records = append(out.Records, rec)
		}
		if page <= 0 || len(out.Records) == input.Limit || int64(len(ids)) < page {
			return out, nil
		}
		// Pruned IDs no longer occupy ranks, so the next page starts after
		// the live ones only.
		start += int64(len(records))
	}
}

// fetchRecords loads the records for ids in order. IDs whose record has
// expired are returned separately so the caller can drop them from the
// deployment index.
func (r *redisRepository) fetchRecords(ctx context.Context, ids []string) ([]*EvaluationRecord, []interface{}, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = evaluationKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch evaluations: %w", err)
	}

	records := make([]*EvaluationRecord, 0, len(values))
	var expired []interface{}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var record EvaluationRecord
		if err := json.Unmarshal([]byte(s), &record); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal evaluation: %w", err)
		}
		records = append(records, &record)
	}
	return records, expired, nil
}

func (r *redisRepository) DeleteByDeployment(ctx context.Context, input DeleteByDeploymentInput) (*DeleteByDeploymentOutput, error) {
	if input.DeploymentID == "" {
		return nil, fmt.Errorf("%w: deployment ID cannot be empty", ErrInvalidArgument)
	}

	indexKey := deploymentKey(input.DeploymentID)
	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, evaluationKey(id))
	}
	keys = append(keys, indexKey)

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to delete evaluations: %w", err)
	}
	// The index key itself is not an evaluation.
	if len(ids) > 0 {
		deleted--
	}
	return &DeleteByDeploymentOutput{Deleted: int(deleted)}, nil
}

func evaluationKey(id string) string {
	return evaluationKeyPrefix + id
}

func deploymentKey(deploymentID string) string {
	return deploymentKeyPrefix + deploymentID + ":evaluations"
}
