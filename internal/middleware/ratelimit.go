package middleware

import (
	"log"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/arabadanismani/backend/internal/metrics"
	"github.com/arabadanismani/backend/internal/ratelimit"
	"github.com/arabadanismani/backend/internal/services"
)

// RateLimit rejects requests from an address that exceeded the limiter's
// window with 429. Limiter errors admit the request.
func RateLimit(limiter ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)

			decision, err := limiter.Allow(r.Context(), addr)
			if err != nil {
				log.Printf("[RATELIMIT] Limiter unavailable, admitting %s: %v", addr, err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allow {
				m.RateLimited()
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				services.SendError(w, http.StatusTooManyRequests, services.CodeTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr is the host part of RemoteAddr. chi's RealIP runs first and
// replaces RemoteAddr with the forwarded client address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
