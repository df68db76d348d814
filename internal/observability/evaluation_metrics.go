package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

// Evaluation outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// EvaluationCollector exposes coverage-evaluation Prometheus metrics.
type EvaluationCollector struct {
	gatherer prometheus.Gatherer

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	CellsEvaluated     prometheus.Counter
	CategoryPercent    *prometheus.GaugeVec
	MeanSIR            *prometheus.GaugeVec
}

// NewEvaluationCollector registers evaluation metrics against the provided
// registerer.
func NewEvaluationCollector(reg prometheus.Registerer) (*EvaluationCollector, error) {
	reg, gatherer := resolveRegistry(reg)

	total, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_evaluations_total",
		Help: "Number of deployment evaluations, labeled by outcome.",
	}, []string{"outcome"}), "coverage_evaluations_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coverage_evaluation_duration_seconds",
		Help:    "Wall-clock duration of full grid evaluations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "coverage_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	cells, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coverage_grid_cells_evaluated_total",
		Help: "Cumulative number of grid cells evaluated.",
	}), "coverage_grid_cells_evaluated_total")
	if err != nil {
		return nil, err
	}

	category, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coverage_category_percent",
		Help: "Share of grid cells per signal category for the latest evaluation of a deployment.",
	}, []string{"deployment", "category"}), "coverage_category_percent")
	if err != nil {
		return nil, err
	}

	sir, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coverage_mean_sir_db",
		Help: "Mean signal-to-interference ratio for the latest evaluation of a deployment.",
	}, []string{"deployment"}), "coverage_mean_sir_db")
	if err != nil {
		return nil, err
	}

	return &EvaluationCollector{
		gatherer:           gatherer,
		EvaluationsTotal:   total,
		EvaluationDuration: duration,
		CellsEvaluated:     cells,
		CategoryPercent:    category,
		MeanSIR:            sir,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EvaluationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a /metrics handler for the collector's registry.
func (c *EvaluationCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveEvaluation records a successful evaluation of deployment.
func (c *EvaluationCollector) ObserveEvaluation(deployment string, d time.Duration, s *core.Summary) {
	if c == nil {
		return
	}
	c.EvaluationsTotal.WithLabelValues(OutcomeSuccess).Inc()
	c.EvaluationDuration.Observe(d.Seconds())
	if s == nil {
		return
	}
	c.CellsEvaluated.Add(float64(s.TotalCells))
	for _, cat := range s.Categories {
		c.CategoryPercent.WithLabelValues(deployment, cat.Name).Set(cat.Percent)
	}
	c.MeanSIR.WithLabelValues(deployment).Set(s.MeanSIRDB)
}

// ObserveFailure records an evaluation that did not produce a summary.
func (c *EvaluationCollector) ObserveFailure(outcome string) {
	if c == nil {
		return
	}
	c.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// ForgetDeployment drops per-deployment series after a deployment is
// deleted.
func (c *EvaluationCollector) ForgetDeployment(deployment string) {
	if c == nil {
		return
	}
	c.CategoryPercent.DeletePartialMatch(prometheus.Labels{"deployment": deployment})
	c.MeanSIR.DeleteLabelValues(deployment)
}
