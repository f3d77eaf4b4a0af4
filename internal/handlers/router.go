package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/arabadanismani/backend/internal/auth"
	"github.com/arabadanismani/backend/internal/metrics"
	mW "github.com/arabadanismani/backend/internal/middleware"
	"github.com/arabadanismani/backend/internal/ratelimit"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Cars     *CarsHandler
	Verifier auth.Verifier
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Metrics
	// RequestTimeout bounds every request. It must exceed the generator
	// timeout so a slow model still gets its refund path.
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultPolicy)
	}

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-Credits-Remaining", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/health", Health)
	r.Handle("/metrics", cfg.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/cars", func(r chi.Router) {
		r.With(
			mW.RateLimit(cfg.Limiter, cfg.Metrics),
			mW.RequireIdentity(cfg.Verifier, mW.RecommendAuthCodes),
		).Post("/recommend", cfg.Cars.Recommend)

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireIdentity(cfg.Verifier, mW.PurchaseAuthCodes))
			r.Post("/add-credits", cfg.Cars.AddCredits)
			r.Get("/credits", cfg.Cars.Credits)
		})
	})

	return r
}
