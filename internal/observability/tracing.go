package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/logging"
)

// DefaultSampleRatio applies to cheap RPCs such as listings. Evaluation
// and comparison spans are always sampled regardless of the ratio.
const DefaultSampleRatio = 0.1

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // used when Exporter == otlp
	SampleRatio float64

	// GridWorkers is recorded on the resource so traces from servers with
	// different row parallelism can be told apart. Zero means GOMAXPROCS.
	GridWorkers int

	// Writer receives stdout-exporter output; defaults to os.Stdout.
	Writer io.Writer
}

// TracingConfigFromEnv reads COVERAGE_TRACING_* and COVERAGE_OTLP_ENDPOINT.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("COVERAGE_TRACING_ENABLED"), "true"),
		ServiceName: envOr("COVERAGE_TRACING_SERVICE_NAME", "coverage-server"),
		Exporter:    strings.ToLower(envOr("COVERAGE_TRACING_EXPORTER", "stdout")),
		Endpoint:    os.Getenv("COVERAGE_OTLP_ENDPOINT"),
		SampleRatio: DefaultSampleRatio,
	}
	if raw := os.Getenv("COVERAGE_TRACING_SAMPLE_RATIO"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 && parsed <= 1 {
			cfg.SampleRatio = parsed
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// InitTracing installs the global tracer provider and propagators and
// returns a function that flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "tracing disabled; using noop tracer provider")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := cfg.exporter(ctx)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(cfg.resourceAttributes()...))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(EvaluationSampler(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
		logging.Int("grid_workers", cfg.GridWorkers),
	)
	return tp.Shutdown, nil
}

func (cfg TracingConfig) resourceAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "coverage"),
		attribute.String("coverage.propagation_model", "log-distance"),
		attribute.Int("coverage.grid.workers", cfg.GridWorkers),
	}
}

func (cfg TracingConfig) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "stdout", "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint(), stdouttrace.WithoutTimestamps())
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
}

// evaluationSampler keeps every span that runs the propagation engine and
// defers the rest to a trace-ID ratio.
type evaluationSampler struct {
	ratio sdktrace.Sampler
}

// EvaluationSampler samples evaluation and comparison spans unconditionally
// and other spans at ratio.
func EvaluationSampler(ratio float64) sdktrace.Sampler {
	return evaluationSampler{ratio: sdktrace.TraceIDRatioBased(ratio)}
}

func (s evaluationSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if IsEvaluationSpan(p.Name) {
		return sdktrace.AlwaysSample().ShouldSample(p)
	}
	return s.ratio.ShouldSample(p)
}

func (s evaluationSampler) Description() string {
	return fmt.Sprintf("EvaluationSampler{%s}", s.ratio.Description())
}

// IsEvaluationSpan reports whether a span name belongs to an RPC or internal
// operation that evaluates a deployment.
func IsEvaluationSpan(name string) bool {
	return strings.HasSuffix(name, "/EvaluateDeployment") ||
		strings.HasSuffix(name, "/CompareDeployments") ||
		strings.HasPrefix(name, "coverage.Evaluate")
}

// SummaryAttributes flattens a coverage summary into span attributes. Category
// names are lower-cased with spaces replaced by underscores.
func SummaryAttributes(s *core.Summary) []attribute.KeyValue {
	if s == nil {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, 5+len(s.Categories))
	attrs = append(attrs,
		attribute.Int("coverage.cells", s.TotalCells),
		attribute.Float64("coverage.best_dbm.mean", s.MeanBestDBm),
		attribute.Float64("coverage.best_dbm.min", s.MinBestDBm),
		attribute.Float64("coverage.sir_db.mean", s.MeanSIRDB),
		attribute.Float64("coverage.sir_db.min", s.MinSIRDB),
	)
	for _, c := range s.Categories {
		key := strings.ReplaceAll(strings.ToLower(c.Name), " ", "_")
		attrs = append(attrs, attribute.Float64("coverage.category."+key+".percent", c.Percent))
	}
	return attrs
}

// ShutdownWithTimeout flushes spans within five seconds, logging failures.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
