package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arabadanismani/backend/docs"
	"github.com/arabadanismani/backend/internal/audit"
	"github.com/arabadanismani/backend/internal/auth"
	"github.com/arabadanismani/backend/internal/config"
	"github.com/arabadanismani/backend/internal/database"
	"github.com/arabadanismani/backend/internal/generator"
	"github.com/arabadanismani/backend/internal/handlers"
	"github.com/arabadanismani/backend/internal/metrics"
	"github.com/arabadanismani/backend/internal/ratelimit"
	"github.com/arabadanismani/backend/internal/services"
)

// @title Araba Danışmanı API
// @version 1.0
// @description Car recommendation relay with metered credits
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs.SwaggerInfo.Title = "Araba Danışmanı API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Without a database the process still serves /health; ledger routes
	// answer with a configuration error.
	var ledger services.Ledger
	db, err := database.OpenPostgres(ctx, database.GetConfig())
	if err != nil {
		log.Printf("[LEDGER] Postgres unavailable, credit routes disabled: %v", err)
	} else {
		defer db.Close()
		ledger = services.NewPostgresLedger(db, cfg.Credits.InitialGrant)
	}

	var limiter ratelimit.Limiter
	policy := ratelimit.Policy{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window}
	if cfg.RateLimit.Backend == "redis" {
		if redisClient := database.InitRedis(ctx); redisClient != nil {
			defer redisClient.Close()
			limiter = ratelimit.NewRedisLimiter(redisClient, policy)
			log.Printf("[RATELIMIT] Using Redis window, %d requests per %s", policy.Max, policy.Window)
		}
	}
	if limiter == nil {
		memory := ratelimit.NewMemoryLimiter(policy)
		go memory.RunSweeper(ctx, time.Minute)
		limiter = memory
		log.Printf("[RATELIMIT] Using in-process window, %d requests per %s", policy.Max, policy.Window)
	}

	verifier := auth.NewVerifier(ctx, cfg.Auth)

	gen, err := generator.New(ctx, cfg.Generator)
	if err != nil {
		log.Fatalf("Failed to initialize generator: %v", err)
	}

	m := metrics.New()
	auditLogger := audit.NewAuditLogger()

	recommendations := services.NewRecommendationService(ledger, gen, services.RecommendationOptions{
		Timeout:                 cfg.Generator.Timeout,
		RefundOnUpstreamFailure: cfg.Credits.RefundOnUpstreamFailure,
		Audit:                   auditLogger,
		Metrics:                 m,
	})
	purchases := services.NewPurchaseService(ledger, services.NewCatalog(cfg.Credits.Products), auditLogger, m)

	router := handlers.NewRouter(handlers.RouterConfig{
		Cars:           handlers.NewCarsHandler(recommendations, purchases, ledger),
		Verifier:       verifier,
		Limiter:        limiter,
		Metrics:        m,
		RequestTimeout: cfg.Generator.Timeout + 15*time.Second,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Generator.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (generator: %s)", cfg.Port, gen.Name())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server stopped")
}
