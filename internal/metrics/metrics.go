package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Core synchronization primitives
	initOnce    sync.Once
	serverMutex sync.Mutex
	modeMutex   sync.Mutex
	currentSrv  *http.Server
)

// Init initializes all metrics subsystems and registers them with
// Prometheus. Safe to call multiple times (uses sync.Once).
func Init() {
	initOnce.Do(func() {
		initLimiterMetrics()
		initDaemonMetrics()
		initAPIMetrics()

		registerLimiterMetrics()
		registerDaemonMetrics()
		registerAPIMetrics()

		// Default values so the gauges appear in /metrics before the first
		// engine action
		PausedProcesses.Set(0)
		LimiterEnabled.Set(0)
		LimiterMode.WithLabelValues("targeted").Set(1)
	})
}

// StartServer starts the metrics HTTP server on the specified address,
// exposing /metrics (Prometheus) and /health.
func StartServer(addr string, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Printf("metrics server already running on %s", currentSrv.Addr)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","healthy":true}`))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	currentSrv = srv

	go func() {
		logger.Printf("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
			ErrorsTotal.Inc()
		}
	}()

	// Give server 100ms to start
	time.Sleep(100 * time.Millisecond)
}

// Shutdown gracefully shuts down the metrics server
func Shutdown(ctx context.Context, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv == nil {
		return
	}

	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
		ErrorsTotal.Inc()
	}
	currentSrv = nil
}
