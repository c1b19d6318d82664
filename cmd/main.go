// Command reasoner serves the concept graph reasoning engine's public
// operations (traverse, find-paths, ground, parent-cover) as a
// read-only JSON API, and optionally runs the Neo4j mirror materializer
// as a background Temporal worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conceptgraph/reasoner/internal/httpapi"
	"github.com/conceptgraph/reasoner/internal/materialize"
	"github.com/conceptgraph/reasoner/internal/platform/envutil"
	"github.com/conceptgraph/reasoner/internal/platform/logger"
	"github.com/conceptgraph/reasoner/internal/platform/neo4jdb"
	"github.com/conceptgraph/reasoner/internal/platform/otel"
	"github.com/conceptgraph/reasoner/internal/platform/shutdown"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/store/graphmirror"
	"github.com/conceptgraph/reasoner/internal/store/omopdb"
)

func main() {
	log, err := logger.New(envutil.Str("LOG_MODE", "dev"))
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("reasoner exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	otelShutdown := otel.Init(ctx, log, otel.Config{
		ServiceName: "reasoner",
		Environment: envutil.Str("ENVIRONMENT", "dev"),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	omopStore, err := omopdb.Connect(log)
	if err != nil {
		return fmt.Errorf("connect omopdb: %w", err)
	}

	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return fmt.Errorf("connect neo4j: %w", err)
	}
	if neo4jClient != nil {
		defer neo4jClient.Close(context.Background())
	}

	var readStore graph.ConceptStore = omopStore
	if neo4jClient != nil && envutil.Bool("USE_GRAPH_MIRROR", false) {
		log.Info("serving reads from the Neo4j mirror")
		readStore = graphmirror.New(neo4jClient)
	}

	handlers := httpapi.NewHandlers(readStore)
	auth := httpapi.NewBearerAuth(envutil.Str("AUTH_SIGNING_KEY", ""))

	var origins []string
	if raw := envutil.Str("CORS_ALLOW_ORIGINS", ""); raw != "" {
		origins = strings.Split(raw, ",")
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handlers:     handlers,
		BearerAuth:   auth,
		AllowOrigins: origins,
	})

	port := envutil.Str("PORT", "8080")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopMaterialize, err := startMaterializeWorker(ctx, log, omopStore, neo4jClient)
	if err != nil {
		return err
	}
	if stopMaterialize != nil {
		defer stopMaterialize()
	}

	// The server goroutine and the shutdown-on-cancel goroutine race on
	// server.Shutdown/ListenAndServe, exactly the shape net/http's own docs
	// recommend; errgroup just gives the pair a shared error return.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("reasoner listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down reasoner")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// startMaterializeWorker brings up the Temporal-driven mirror rebuild when
// both Temporal and Neo4j are configured. It's entirely optional: a reasoner
// instance reading directly from omopdb never needs it, and RUN_MATERIALIZE_WORKER
// defaults to off so a plain Postgres-only deployment doesn't need Temporal.
func startMaterializeWorker(ctx context.Context, log *logger.Logger, omopStore *omopdb.Store, neo4jClient *neo4jdb.Client) (func(), error) {
	if !envutil.Bool("RUN_MATERIALIZE_WORKER", false) {
		return nil, nil
	}
	if neo4jClient == nil {
		log.Warn("RUN_MATERIALIZE_WORKER set but NEO4J_URI is not configured; skipping")
		return nil, nil
	}

	cfg := materialize.LoadConfig()

	tc, err := materialize.NewTemporalClient(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("materialize: temporal client: %w", err)
	}
	if tc == nil {
		log.Warn("RUN_MATERIALIZE_WORKER set but TEMPORAL_ADDRESS is not configured; skipping")
		return nil, nil
	}

	lock, err := materialize.NewLock(log, cfg.RedisAddr, cfg.LockKey, cfg.LockTTL)
	if err != nil {
		tc.Close()
		return nil, fmt.Errorf("materialize: lock: %w", err)
	}

	sync := materialize.NewSync(omopStore, neo4jClient, log, cfg.BatchSize)
	acts := &materialize.Activities{Sync: sync, Lock: lock}

	runner, err := materialize.NewRunner(log, tc, cfg, acts)
	if err != nil {
		tc.Close()
		return nil, fmt.Errorf("materialize: runner: %w", err)
	}
	if err := runner.Start(ctx); err != nil {
		tc.Close()
		return nil, fmt.Errorf("materialize: start worker: %w", err)
	}
	if err := materialize.EnsureStarted(ctx, tc, cfg); err != nil {
		log.Warn("materialize: ensure workflow started failed", "error", err)
	}

	return func() { tc.Close() }, nil
}
