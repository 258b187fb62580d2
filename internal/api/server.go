// Package api exposes the limiter's control surface over HTTP. It is the
// daemon-side half of what a UI or CLI client consumes: desired-state
// writes, status reads, and the process/system views those clients render.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"cpu-limiter/internal/limiter"
	"cpu-limiter/internal/monitor"
	"cpu-limiter/internal/proc"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server serves the control API.
type Server struct {
	lim     *limiter.Limiter
	mon     *monitor.Monitor
	sig     proc.Signaller
	sampler proc.Sampler
	logger  *log.Logger
	srv     *http.Server
}

// NewServer wires the control surface onto lim. mon may be nil; the
// /system endpoint then reports 404.
func NewServer(addr string, lim *limiter.Limiter, mon *monitor.Monitor, sig proc.Signaller, sampler proc.Sampler, logger *log.Logger, rps float64, burst int) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		lim:     lim,
		mon:     mon,
		sig:     sig,
		sampler: sampler,
		logger:  logger,
	}

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))
	router.Use(rateLimitMiddleware(rate.Limit(rps), burst))
	router.Use(metricsMiddleware)

	// A later route failing its path match can downgrade a method mismatch
	// to a 404 inside mux, so the 405 has to be pinned explicitly.
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	router.MethodNotAllowedHandler = methodNotAllowed

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.MethodNotAllowedHandler = methodNotAllowed
	v1.HandleFunc("/target", s.handleSetTarget).Methods(http.MethodPost)
	v1.HandleFunc("/global", s.handleSetGlobal).Methods(http.MethodPost)
	v1.HandleFunc("/limit", s.handleSetLimit).Methods(http.MethodPost)
	v1.HandleFunc("/toggle", s.handleToggle).Methods(http.MethodPost)
	v1.HandleFunc("/config", s.handleGetConfig).Methods(http.MethodGet)
	v1.HandleFunc("/status", s.handleGetStatus).Methods(http.MethodGet)
	v1.HandleFunc("/processes", s.handleProcesses).Methods(http.MethodGet)
	if mon != nil {
		v1.HandleFunc("/system", s.handleSystem).Methods(http.MethodGet)
	}

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Printf("control API listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("ERROR: control API server: %v", err)
		}
	}()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("ERROR: control API shutdown: %v", err)
	}
}
