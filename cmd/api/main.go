// cmd/api/main.go
// Main entry point for the scoring API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
	"github.com/imadgeboyega/kiekky-scoring/internal/behavior"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/database"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/config"
	"github.com/imadgeboyega/kiekky-scoring/internal/discovery"
	"github.com/imadgeboyega/kiekky-scoring/internal/matching"
	"github.com/imadgeboyega/kiekky-scoring/internal/scorecache"
	"github.com/imadgeboyega/kiekky-scoring/internal/trust"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load and validate configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Warn("No .env file found, using environment variables", "error", envErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Connect to PostgreSQL
	db, err := database.NewPostgresDBFromURL(ctx, cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	defer db.Close()
	log.Info("Connected to PostgreSQL")

	// 4. Run database migrations
	if err := runMigrations(ctx, db, log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	// 5. Connect to Redis for the shared score cache (optional)
	var redisClient *redis.Client
	if cfg.CacheRedisEnabled {
		redisClient, err = database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, score caches stay in-process", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("Connected to Redis")
		}
	}

	cacheOpts := []scorecache.Option{scorecache.WithLogger(log)}
	if redisClient != nil {
		store := scorecache.NewRedisStore(redisClient, cfg.CacheRedisPrefix, cfg.CacheInvalidationChannel, log)
		cacheOpts = append(cacheOpts, scorecache.WithStore(store), scorecache.WithBus(store))
	}

	tasteCache := scorecache.New[*behavior.TasteProfile]("taste", cacheOpts...)
	trustCache := scorecache.New[*trust.TrustScore]("trust", cacheOpts...)
	// Compatibility scores are cheap and per session; keep them local.
	compatCache := scorecache.New[*matching.Breakdown]("compatibility", scorecache.WithLogger(log))

	for _, listen := range []func(context.Context) error{
		tasteCache.ListenForInvalidations,
		trustCache.ListenForInvalidations,
	} {
		if err := listen(ctx); err != nil {
			log.Warn("Cache invalidation listener failed to start", "error", err)
		}
	}

	// 6. Scoring core
	scorer, err := matching.NewScorer(matching.Config{
		Weights: matching.Weights{
			Intents:  cfg.WeightIntents,
			Age:      cfg.WeightAge,
			Pace:     cfg.WeightPace,
			Response: cfg.WeightResponse,
			Locality: cfg.WeightLocality,
			Quality:  cfg.WeightQuality,
		},
		AgeBandYears: cfg.AgeBandYears,
	})
	if err != nil {
		log.Fatal("Invalid scorer configuration", "error", err)
	}

	tasteCfg := behavior.DefaultTasteConfig()
	tasteCfg.TargetSampleCount = cfg.TasteTargetSamples
	tasteCfg.SessionIdle = cfg.TasteSessionIdle
	tasteBuilder, err := behavior.NewTasteBuilder(tasteCfg)
	if err != nil {
		log.Fatal("Invalid taste configuration", "error", err)
	}

	trustCfg := trust.DefaultEngineConfig()
	trustCfg.RespectfulMinDays = cfg.TrustRespectfulMinDays
	trustEngine, err := trust.NewEngine(trustCfg)
	if err != nil {
		log.Fatal("Invalid trust configuration", "error", err)
	}

	// 7. Behavior module
	behaviorRepo := behavior.NewPostgresRepository(db)
	behaviorService := behavior.NewService(behaviorRepo, tasteBuilder, tasteCache, log)
	rebuildScheduler := behavior.NewRebuildScheduler(behaviorService, cfg.RebuildBatchSize, cfg.RebuildWindow, log)
	rebuildScheduler.Start(ctx)
	tracker := behavior.NewTracker(behaviorRepo, rebuildScheduler)
	behaviorHandler := behavior.NewHandler(behaviorService, tracker, log)

	// 8. Discovery module
	discoveryService := discovery.NewService(
		discovery.NewPostgresRepository(db),
		discovery.NewCachedScorer(scorer, compatCache),
		behaviorService,
		discovery.Config{
			Ranker: discovery.RankerConfig{
				MinTasteConfidence: cfg.TasteMinConfidence,
				TasteWeight:        cfg.TasteWeight,
			},
			CandidateLimit: cfg.DiscoveryCandidateLimit,
			FeedLimit:      cfg.DiscoveryFeedLimit,
		},
		log,
	)
	discoveryHandler := discovery.NewHandler(discoveryService, log)

	// 9. Trust module
	trustService := trust.NewService(trust.NewPostgresRepository(db), trustEngine, trustCache, log)
	trustHandler := trust.NewHandler(trustService, log)

	// 10. Setup routes
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware)

	router.HandleFunc("/health", healthCheck(tasteCache, trustCache, compatCache)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	behavior.RegisterRoutes(router, behaviorHandler, authMiddleware)
	discovery.RegisterRoutes(router, discoveryHandler, authMiddleware)
	trust.RegisterRoutes(router, trustHandler, authMiddleware)

	// 11. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// Rebuild whatever is still pending before the scheduler goes away
	stop()
	rebuildScheduler.Flush(shutdownCtx)

	log.Info("Server exited gracefully")
}

type cacheStats interface {
	Name() string
	Stats() scorecache.Stats
}

// healthCheck returns server health status
func healthCheck(caches ...cacheStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := make(map[string]scorecache.Stats, len(caches))
		for _, c := range caches {
			stats[c.Name()] = c.Stats()
		}

		response := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
			"caches":    stats,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
