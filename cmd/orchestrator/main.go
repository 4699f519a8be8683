// Command orchestrator starts the Multi-Agent Orchestration Core's HTTP
// surface, wiring every component (C1-C12) described in SPEC_FULL.md
// against a live neo4j backend, the Anthropic Messages API, and
// (optionally) etcd/redis for durability and cross-replica fan-out.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/graphmind/orchestrator/agentpool"
	"github.com/graphmind/orchestrator/config"
	"github.com/graphmind/orchestrator/credstore"
	"github.com/graphmind/orchestrator/debate"
	"github.com/graphmind/orchestrator/graphgw"
	"github.com/graphmind/orchestrator/httpapi"
	"github.com/graphmind/orchestrator/idregistry"
	"github.com/graphmind/orchestrator/llm"
	"github.com/graphmind/orchestrator/resolver"
	"github.com/graphmind/orchestrator/router"
	"github.com/graphmind/orchestrator/runtime"
	"github.com/graphmind/orchestrator/semanticflow"
	"github.com/graphmind/orchestrator/supervisor"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.NewFromEnv()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var durableStore idregistry.Store
	if len(cfg.EtcdEndpoints) > 0 {
		store, err := idregistry.NewEtcdStore(cfg.EtcdEndpoints)
		if err != nil {
			logger.Error("etcd dial failed", "error", err)
			os.Exit(1)
		}
		durableStore = store
	}
	identifiers, err := idregistry.New(ctx, durableStore)
	if err != nil {
		logger.Error("identifier registry init failed", "error", err)
		os.Exit(1)
	}

	driver, err := graphgw.Dial(cfg.GraphURI, cfg.GraphUser, cfg.GraphPassword)
	if err != nil {
		logger.Error("graph dial failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)
	gateway := graphgw.New(driver, identifiers, cfg.GraphTimeout)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis url parse failed", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	primarySlot := llm.SlotDefinition{
		Name:             "primary",
		Description:      "foundation-model slot every db-bound agent runs against",
		Required:         true,
		MinContextWindow: 150000,
		RequiredFeatures: []string{"function_calling"},
		PreferredModels:  []string{"claude-sonnet-4-5", "claude-opus-4-5"},
	}
	if err := primarySlot.Validate(); err != nil {
		logger.Error("primary model slot misconfigured", "error", err)
		os.Exit(1)
	}
	if !primarySlot.PrefersModel(cfg.AnthropicModel) {
		logger.Warn("configured model is not in the primary slot's preferred list", "model", cfg.AnthropicModel)
	}

	credentials := credstore.NewEnvStore(map[string]string{"anthropic": "ANTHROPIC_API_KEY"}, logger)
	adapter, err := runtime.New(ctx, cfg.AnthropicModel, credentials, "anthropic")
	if err != nil {
		logger.Error("model credential resolution failed", "error", err)
		os.Exit(1)
	}
	pool := agentpool.New(gateway, adapter, redisClient, cfg.ProbeTimeout)
	if redisClient != nil {
		go pool.SubscribeReadiness(ctx)
	}

	res := resolver.New(gateway, cfg.FulltextIndex, resolver.Weights{
		Lexical:  cfg.LexicalWeight,
		Fulltext: cfg.FulltextWeight,
		Hint:     cfg.HintWeight,
	}, cfg.DedupThreshold, cfg.ConfidenceGap)

	rt, err := router.New(cfg.RouteMargin)
	if err != nil {
		logger.Error("router init failed", "error", err)
		os.Exit(1)
	}

	flow := semanticflow.New(res, rt, pool)
	deb := debate.New(pool, cfg.DebateParallelism, cfg.AgentTimeout)

	tracer := otel.Tracer("graphmind/orchestrator")
	sup := supervisor.New(pool, flow, deb, tracer, cfg.SharedMemoryCap, cfg.RequestTimeout)

	server := httpapi.New(sup, identifiers, logger, cfg.MaxInFlight, func() int64 { return time.Now().UnixMilli() })

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GraceTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("orchestrator listening", "addr", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
