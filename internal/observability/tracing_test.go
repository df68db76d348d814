package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("COVERAGE_TRACING_ENABLED", "TRUE")
	t.Setenv("COVERAGE_TRACING_EXPORTER", "OTLP")
	t.Setenv("COVERAGE_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("COVERAGE_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.ServiceName != "coverage-server" {
		t.Fatalf("default service name = %q", cfg.ServiceName)
	}

	t.Setenv("COVERAGE_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv().SampleRatio; got != DefaultSampleRatio {
		t.Fatalf("out-of-range ratio should fall back to %v, got %v", DefaultSampleRatio, got)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	shutdown, err := InitTracing(ctx, TracingConfig{
		Enabled:     true,
		ServiceName: "test",
		Exporter:    "stdout",
		SampleRatio: 1,
		GridWorkers: 4,
		Writer:      &buf,
	}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := otel.Tracer("test").Start(ctx, "evaluate")
	span.End()

	ShutdownWithTimeout(ctx, shutdown, nil)
	if !strings.Contains(buf.String(), "evaluate") {
		t.Fatalf("expected span name in exporter output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "coverage.grid.workers") {
		t.Fatalf("expected grid workers resource attribute, got %q", buf.String())
	}

	if _, err := InitTracing(ctx, TracingConfig{}, nil); err != nil {
		t.Fatalf("disabled InitTracing: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestEvaluationSamplerKeepsEvaluationSpans(t *testing.T) {
	sampler := EvaluationSampler(0)
	params := func(name string) sdktrace.SamplingParameters {
		return sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       trace.TraceID{0x01},
			Name:          name,
		}
	}

	for _, name := range []string{
		"Coverage/coverage.v1.CoverageService/EvaluateDeployment",
		"Coverage/coverage.v1.CoverageService/CompareDeployments",
		"coverage.Evaluate",
	} {
		if got := sampler.ShouldSample(params(name)).Decision; got != sdktrace.RecordAndSample {
			t.Errorf("%s: decision = %v, want RecordAndSample", name, got)
		}
	}
	if got := sampler.ShouldSample(params("Coverage/coverage.v1.CoverageService/ListDeployments")).Decision; got != sdktrace.Drop {
		t.Errorf("listing decision = %v, want Drop at ratio 0", got)
	}
	if !strings.HasPrefix(sampler.Description(), "EvaluationSampler{") {
		t.Errorf("description = %q", sampler.Description())
	}
}

func TestSummaryAttributes(t *testing.T) {
	if SummaryAttributes(nil) != nil {
		t.Fatalf("nil summary should yield no attributes")
	}

	attrs := SummaryAttributes(&core.Summary{
		TotalCells: 12,
		MeanSIRDB:  17.5,
		Categories: []core.CategoryShare{{Name: "Very Good", Count: 3, Percent: 25}},
	})
	got := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		got[kv.Key] = kv.Value
	}
	if got["coverage.cells"].AsInt64() != 12 {
		t.Fatalf("coverage.cells = %v", got["coverage.cells"])
	}
	if got["coverage.sir_db.mean"].AsFloat64() != 17.5 {
		t.Fatalf("coverage.sir_db.mean = %v", got["coverage.sir_db.mean"])
	}
	if got["coverage.category.very_good.percent"].AsFloat64() != 25 {
		t.Fatalf("category attribute missing: %v", attrs)
	}
}
