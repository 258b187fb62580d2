package api

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cpu-limiter/internal/metrics"
)

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs one line per request
func loggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

// metricsMiddleware records request counts and latency per handler
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, r.Method, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path, r.Method, status).
			Observe(time.Since(start).Seconds())
	})
}

// rateLimitMiddleware applies a per-client token bucket. Client identity is
// the remote address (X-Forwarded-For when set, for proxied deployments).
func rateLimitMiddleware(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	getLimiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		// Bound the map rather than tracking last access per client
		if len(limiters) > 1000 {
			limiters = make(map[string]*rate.Limiter)
		}
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				ip = xff
			}
			if !getLimiter(ip).Allow() {
				respondError(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
