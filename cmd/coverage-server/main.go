package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/api"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/clock"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/logging"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/observability"
	redisclient "github.com/signalsfoundry/indoor-coverage-sim/internal/redis"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/store"
	"github.com/signalsfoundry/indoor-coverage-sim/kb"
)

// Config holds the server settings parsed from flags.
type Config struct {
	ListenAddress  string
	MetricsAddress string

	// RedisURL takes precedence over RedisAddress. With neither set,
	// evaluations are kept in memory.
	RedisURL      string
	RedisAddress  string
	EvaluationTTL time.Duration

	// ScenarioDir is scanned for *.json, *.yaml and *.yml deployments at
	// startup.
	ScenarioDir string
	Workers     int
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.ListenAddress, "grpc-addr", ":50051", "TCP address the coverage gRPC server listens on")
	flag.StringVar(&cfg.MetricsAddress, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics (empty disables)")
	flag.StringVar(&cfg.RedisURL, "redis-url", "", "redis:// URL for evaluation storage")
	flag.StringVar(&cfg.RedisAddress, "redis-addr", "", "host:port of Redis for evaluation storage")
	flag.DurationVar(&cfg.EvaluationTTL, "evaluation-ttl", 0, "expire stored evaluations after this long (0 keeps them)")
	flag.StringVar(&cfg.ScenarioDir, "scenarios", "configs", "directory of scenario files preloaded as deployments")
	flag.IntVar(&cfg.Workers, "workers", 0, "rows evaluated in parallel per evaluation (0 uses GOMAXPROCS)")
	flag.Parse()

	log := logging.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "coverage server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}

	tracingCfg := observability.TracingConfigFromEnv()
	tracingCfg.GridWorkers = cfg.Workers
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	rpcMetrics, err := observability.NewRPCCollector(reg)
	if err != nil {
		return fmt.Errorf("init rpc metrics: %w", err)
	}
	evalMetrics, err := observability.NewEvaluationCollector(reg)
	if err != nil {
		return fmt.Errorf("init evaluation metrics: %w", err)
	}

	repo, closeRepo, err := newRepository(cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	knowledge := kb.NewKnowledgeBase()
	unsubscribe := knowledge.Subscribe(func(ev kb.Event) {
		rpcMetrics.SetDeploymentCount(knowledge.Len())
		log.Debug(context.Background(), "deployment changed",
			logging.String("deployment_id", ev.DeploymentID),
			logging.String("event", ev.Type.String()),
		)
	})
	defer unsubscribe()

	catalog := core.DefaultCatalog()
	preloadScenarios(ctx, log, knowledge, catalog, cfg.ScenarioDir)

	svc, err := api.NewCoverageService(&api.Config{
		KnowledgeBase: knowledge,
		Repository:    repo,
		Catalog:       catalog,
		Metrics:       evalMetrics,
		Logger:        log,
		Workers:       cfg.Workers,
	})
	if err != nil {
		return fmt.Errorf("init coverage service: %w", err)
	}

	server, health := api.NewServer(api.ServerConfig{
		Service: svc,
		Logger:  log,
		Metrics: rpcMetrics,
		Options: []grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())},
	})

	metricsSrv := serveMetrics(cfg.MetricsAddress, rpcMetrics.Handler(), log)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting coverage gRPC server", logging.String("addr", lis.Addr().String()))
		errCh <- server.Serve(lis)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down coverage server")
	health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		log.Warn(context.Background(), "graceful stop timed out, forcing stop")
		server.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return serveErr
	}
	return nil
}

func newRepository(cfg Config, log logging.Logger) (store.Repository, func(), error) {
	var (
		client redisclient.Client
		err    error
	)
	switch {
	case cfg.RedisURL != "":
		client, err = redisclient.NewClientFromURL(cfg.RedisURL)
	case cfg.RedisAddress != "":
		client, err = redisclient.NewClient(cfg.RedisAddress, nil)
	default:
		log.Info(context.Background(), "storing evaluations in memory")
		return store.NewMemoryRepository(clock.New()), func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init redis client: %w", err)
	}

	repo, err := store.NewRedisRepository(&store.Config{
		Client: client,
		Clock:  clock.New(),
		TTL:    cfg.EvaluationTTL,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	log.Info(context.Background(), "storing evaluations in redis", logging.Duration("ttl", cfg.EvaluationTTL))
	return repo, func() { _ = client.Close() }, nil
}

// preloadScenarios registers every scenario file in dir under its scenario
// name. Files that fail to load are skipped with a warning.
func preloadScenarios(ctx context.Context, log logging.Logger, knowledge *kb.KnowledgeBase, catalog *core.MaterialCatalog, dir string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn(ctx, "skipping scenario preload", logging.String("dir", dir), logging.Err(err))
		return
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	loaded := 0
	for _, path := range paths {
		s, err := core.LoadScenarioFile(path, catalog)
		if err != nil {
			log.Warn(ctx, "skipping scenario", logging.String("path", path), logging.Err(err))
			continue
		}
		if _, err := knowledge.PutDeployment(s.Name, s); err != nil {
			log.Warn(ctx, "skipping scenario", logging.String("path", path), logging.Err(err))
			continue
		}
		loaded++
	}

	log.Info(ctx, "preloaded deployments",
		logging.String("dir", dir),
		logging.Int("count", loaded),
	)
}

func serveMetrics(addr string, handler http.Handler, log logging.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
