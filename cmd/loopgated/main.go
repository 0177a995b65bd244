// loopgated is the agent-loop orchestrator server: exposes an HTTP API
// over the agent loop, wires the configured backends into the provider
// router, and runs the retention purge loop alongside it.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/loopgate/loopgate/pkg/applier"
	"github.com/loopgate/loopgate/pkg/config"
	"github.com/loopgate/loopgate/pkg/docfetch"
	"github.com/loopgate/loopgate/pkg/notify"
	"github.com/loopgate/loopgate/pkg/orchestrator"
	"github.com/loopgate/loopgate/pkg/phases"
	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/loopgate/loopgate/pkg/provider"
	"github.com/loopgate/loopgate/pkg/retention"
	"github.com/loopgate/loopgate/pkg/review"
	"github.com/loopgate/loopgate/pkg/sandbox"
	"github.com/loopgate/loopgate/pkg/store"
	"github.com/loopgate/loopgate/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func buildBackends(cfgs []config.BackendConfig) ([]provider.Backend, error) {
	backends := make([]provider.Backend, 0, len(cfgs))
	for _, b := range cfgs {
		switch b.Kind {
		case "http":
			backends = append(backends, provider.NewRemoteBackend(b.Name, b.Endpoint, uint8(b.Priority)))
		case "grpc":
			backend, err := provider.NewGRPCBackend(b.Name, b.Endpoint, uint8(b.Priority))
			if err != nil {
				return nil, err
			}
			backends = append(backends, backend)
		default:
			backends = append(backends, provider.NewHeuristicBackend())
		}
	}
	return backends, nil
}

func toRoutingPolicy(c config.RoutingPolicyConfig) pipeline.RoutingPolicy {
	return pipeline.RoutingPolicy{
		PreferLocal:     c.PreferLocal,
		MaxLatencyMS:    c.MaxLatencyMS,
		MinSuccessRate:  c.MinSuccessRate,
		FallbackEnabled: c.FallbackEnabled,
		QualityThresh:   c.QualityThresh,
	}
}

func toLoopConfig(c config.LoopConfigValues) pipeline.LoopConfig {
	return pipeline.LoopConfig{
		MaxIterations:      c.MaxIterations,
		TimeoutSeconds:     c.TimeoutSeconds,
		ParallelAgents:     c.ParallelAgents,
		QualityThreshold:   c.QualityThreshold,
		RiskThreshold:      c.RiskThreshold,
		EnableAutoApproval: c.EnableAutoApproval,
		EnableRollback:     c.EnableRollback,
	}
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8090")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("Starting %s", version.Full())
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()

	backends, err := buildBackends(cfg.Backends)
	if err != nil {
		log.Fatalf("Failed to build backends: %v", err)
	}
	fallback := provider.NewHeuristicBackend()
	router := provider.NewRouter(backends, fallback, toRoutingPolicy(cfg.Routing))

	docs := docfetch.NewService(os.Getenv("GITHUB_TOKEN"), 5*time.Minute)

	loop := orchestrator.New(
		phases.NewPlanner(router),
		phases.NewRetriever(router, docs),
		phases.NewCodegen(router),
		phases.NewTestgen(sandbox.NewStubRunner()),
		phases.NewReviewer(),
		phases.NewRisk(),
		review.NewGate(),
		applier.NewFileApplier(),
		router,
		int64(cfg.Loop.MaxConcurrentLoops),
	)

	resultStore := store.NewInMemoryStore()
	retentionSvc := retention.NewService(cfg.Retention, resultStore)
	retentionSvc.Start(ctx)
	defer retentionSvc.Stop()

	var notifier *notify.Service
	if cfg.Notify.Enabled {
		notifier = notify.NewService(notify.ServiceConfig{
			Token:        os.Getenv(cfg.Notify.TokenEnv),
			Channel:      cfg.Notify.Channel,
			DashboardURL: getEnv("DASHBOARD_URL", ""),
		})
	}

	log.Println("✓ Configuration initialized")
	log.Println("✓ Provider router wired")
	log.Println("✓ Retention service started")

	engine := gin.Default()

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"version":  version.Full(),
			"backends": stats.Backends,
		})
	})

	engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, loop.Metrics())
	})

	engine.GET("/config/loop", func(c *gin.Context) {
		c.JSON(http.StatusOK, toLoopConfig(cfg.Loop))
	})

	engine.POST("/executions", func(c *gin.Context) {
		var req pipeline.LoopRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		executionID, err := loop.Start(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		threadTS := notifier.NotifyLoopStarted(c.Request.Context(), executionID, req.Goal)

		go func() {
			waitCtx, cancel := context.WithTimeout(context.Background(), time.Duration(req.Config.TimeoutSeconds+30)*time.Second)
			defer cancel()
			for {
				result, ok := loop.GetExecution(executionID)
				if ok {
					if err := resultStore.Put(waitCtx, result); err != nil {
						slog.Error("failed to persist loop result", "execution_id", executionID, "error", err)
					}
					notifier.NotifyLoopCompleted(waitCtx, result, threadTS)
					return
				}
				select {
				case <-waitCtx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"execution_id": executionID})
	})

	engine.GET("/executions/:id", func(c *gin.Context) {
		result, ok := loop.GetExecution(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	engine.DELETE("/executions/:id", func(c *gin.Context) {
		if err := loop.CancelExecution(c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := engine.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
