package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/logging"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/observability"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/store"
	"github.com/signalsfoundry/indoor-coverage-sim/kb"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Config holds the dependencies of the coverage service.
type Config struct {
	KnowledgeBase *kb.KnowledgeBase
	Repository    store.Repository
	// Catalog resolves obstacle materials; nil uses core.DefaultCatalog.
	Catalog *core.MaterialCatalog
	// Metrics is optional.
	Metrics *observability.EvaluationCollector
	Logger  logging.Logger
	// Workers bounds per-evaluation row parallelism; zero uses GOMAXPROCS.
	Workers int
}

// Validate ensures all required dependencies are provided.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if c.KnowledgeBase == nil {
		return errors.New("knowledge base is required")
	}
	if c.Repository == nil {
		return errors.New("repository is required")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	return nil
}

// CoverageService serves deployment management and coverage evaluation
// over gRPC. Deployments live in the knowledge base; evaluation summaries
// are persisted in the repository.
type CoverageService struct {
	kb      *kb.KnowledgeBase
	repo    store.Repository
	catalog *core.MaterialCatalog
	metrics *observability.EvaluationCollector
	log     logging.Logger
	workers int
}

var _ CoverageServer = (*CoverageService)(nil)

// NewCoverageService constructs the service from cfg.
func NewCoverageService(cfg *Config) (*CoverageService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = core.DefaultCatalog()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &CoverageService{
		kb:      cfg.KnowledgeBase,
		repo:    cfg.Repository,
		catalog: catalog,
		metrics: cfg.Metrics,
		log:     log,
		workers: cfg.Workers,
	}, nil
}

type deploymentInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AccessPoints int    `json:"access_points"`
	Obstacles    int    `json:"obstacles"`
	GridCells    int    `json:"grid_cells"`
}

func describe(id string, s *core.Scenario) deploymentInfo {
	return deploymentInfo{
		ID:           id,
		Name:         s.Name,
		AccessPoints: len(s.AccessPoints),
		Obstacles:    len(s.Obstacles),
		GridCells:    s.Grid.Size(),
	}
}

// PutDeployment stores {"id", "scenario"} where scenario uses the scenario
// file JSON layout. Existing deployments with the same ID are replaced.
func (s *CoverageService) PutDeployment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	doc := req.GetFields()["scenario"].GetStructValue()
	if doc == nil {
		return nil, ToStatusError(fmt.Errorf("%w: %q must be an object", ErrInvalidRequest, "scenario"))
	}

	data, err := protojson.Marshal(doc)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	scenario, err := core.LoadScenario(bytes.NewReader(data), core.FormatJSON, s.catalog)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	if scenario.Name == "" {
		scenario.Name = id
	}

	created, err := s.kb.PutDeployment(id, scenario)
	if err != nil {
		return nil, ToStatusError(err)
	}

	logging.FromContext(ctx, s.log).Info(ctx, "deployment stored",
		logging.String("deployment_id", id),
		logging.Int("access_points", len(scenario.AccessPoints)),
		logging.Any("created", created),
	)

	return toStructOrStatus(struct {
		deploymentInfo
		Created bool `json:"created"`
	}{describe(id, scenario), created})
}

// ListDeployments returns every stored deployment ordered by ID.
func (s *CoverageService) ListDeployments(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ids := s.kb.ListDeploymentIDs()
	out := make([]deploymentInfo, 0, len(ids))
	for _, id := range ids {
		scenario, err := s.kb.GetDeployment(id)
		if err != nil {
			// Deleted between list and get.
			continue
		}
		out = append(out, describe(id, scenario))
	}
	return toStructOrStatus(map[string]any{"deployments": out})
}

// DeleteDeployment removes a deployment and its stored evaluations.
func (s *CoverageService) DeleteDeployment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.kb.DeleteDeployment(id); err != nil {
		return nil, ToStatusError(err)
	}
	s.metrics.ForgetDeployment(id)

	deleted, err := s.repo.DeleteByDeployment(ctx, store.DeleteByDeploymentInput{DeploymentID: id})
	if err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "failed to delete stored evaluations",
			logging.String("deployment_id", id),
			logging.Err(err),
		)
		return nil, ToStatusError(err)
	}
	return toStructOrStatus(map[string]any{"id": id, "evaluations_deleted": deleted.Deleted})
}

// EvaluateDeployment evaluates the deployment named by {"id"} and persists
// the summary.
func (s *CoverageService) EvaluateDeployment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	record, err := s.evaluate(ctx, id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStructOrStatus(map[string]any{"evaluation": record})
}

// GetEvaluation fetches a stored evaluation by {"id"}.
func (s *CoverageService) GetEvaluation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := s.repo.Get(ctx, store.GetInput{ID: id})
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStructOrStatus(map[string]any{"evaluation": out.Record})
}

// ListEvaluations returns the stored evaluations of {"deployment_id"},
// newest first, capped at the optional {"limit"}.
func (s *CoverageService) ListEvaluations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "deployment_id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	limit, err := intField(req, "limit")
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := s.repo.ListByDeployment(ctx, store.ListInput{DeploymentID: id, Limit: limit})
	if err != nil {
		return nil, ToStatusError(err)
	}
	records := out.Records
	if records == nil {
		records = []*store.EvaluationRecord{}
	}
	return toStructOrStatus(map[string]any{"evaluations": records})
}

// CompareDeployments evaluates {"baseline"} and {"candidate"} and reports
// the candidate's change relative to the baseline.
func (s *CoverageService) CompareDeployments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	baselineID, err := requiredString(req, "baseline")
	if err != nil {
		return nil, ToStatusError(err)
	}
	candidateID, err := requiredString(req, "candidate")
	if err != nil {
		return nil, ToStatusError(err)
	}

	baseline, err := s.evaluate(ctx, baselineID)
	if err != nil {
		return nil, ToStatusError(err)
	}
	candidate, err := s.evaluate(ctx, candidateID)
	if err != nil {
		return nil, ToStatusError(err)
	}
	cmp, err := core.CompareSummaries(baseline.Summary, candidate.Summary)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStructOrStatus(map[string]any{
		"baseline":   baseline,
		"candidate":  candidate,
		"comparison": cmp,
	})
}

func (s *CoverageService) evaluate(ctx context.Context, id string) (*store.EvaluationRecord, error) {
	scenario, err := s.kb.GetDeployment(id)
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx, s.log).With(logging.String("deployment_id", id))

	ctx, span := StartChildSpan(ctx, "coverage.Evaluate", id,
		attribute.Int("grid.cells", scenario.Grid.Size()),
		attribute.Int("access_points", len(scenario.AccessPoints)),
	)
	defer span.End()

	var opts []core.GridOption
	if s.workers > 0 {
		opts = append(opts, core.WithWorkers(s.workers))
	}

	start := time.Now()
	ev, err := core.Evaluate(ctx, scenario, opts...)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveFailure(outcomeFor(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		log.Warn(ctx, "evaluation failed", logging.Err(err))
		return nil, err
	}
	s.metrics.ObserveEvaluation(id, elapsed, ev.Summary)

	saved, err := s.repo.Save(ctx, store.SaveInput{
		DeploymentID: id,
		Duration:     elapsed,
		Summary:      ev.Summary,
	})
	if err != nil {
		span.RecordError(err)
		log.Error(ctx, "failed to persist evaluation", logging.Err(err))
		return nil, err
	}
	span.SetAttributes(observability.SummaryAttributes(ev.Summary)...)
	span.SetAttributes(attribute.String("evaluation_id", saved.Record.ID))

	log.Info(ctx, "deployment evaluated",
		logging.String("evaluation_id", saved.Record.ID),
		logging.Duration("elapsed", elapsed),
		logging.Float64("mean_best_dbm", ev.Summary.MeanBestDBm),
		logging.Float64("mean_sir_db", ev.Summary.MeanSIRDB),
	)
	return saved.Record, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidConfiguration),
		errors.Is(err, core.ErrCategoryConfiguration),
		errors.Is(err, core.ErrInvalidMaterial):
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeError
	}
}

func toStructOrStatus(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}
