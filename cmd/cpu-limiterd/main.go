package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cpu-limiter/internal/api"
	"cpu-limiter/internal/config"
	"cpu-limiter/internal/database"
	"cpu-limiter/internal/exitcodes"
	"cpu-limiter/internal/limiter"
	"cpu-limiter/internal/logging"
	"cpu-limiter/internal/metrics"
	"cpu-limiter/internal/monitor"
	"cpu-limiter/internal/proc"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "/etc/cpu-limiter/config.yaml", "Path to configuration file")
	flag.Parse()

	// Initialize logger
	logger := logging.New()

	logger.Println("CPU Limiter Daemon Starting...")
	logger.Printf("Config file: %s", *configPath)

	// Load configuration; a missing file means defaults, a broken one is fatal
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Printf("config file not found, using defaults")
			cfg = config.Default()
		} else {
			logger.Printf("ERROR: Failed to load config: %v", err)
			os.Exit(exitcodes.InvalidConfig)
		}
	}

	// Only one limiter daemon may run; two engines signalling the same
	// processes would fight each other
	lock, err := acquireLock(cfg.LockPath)
	if err != nil {
		logger.Printf("ERROR: %v", err)
		os.Exit(exitcodes.AlreadyRunning)
	}
	defer lock.Release()

	// Initialize metrics (Prometheus)
	metrics.Init()
	if cfg.Prometheus.Port > 0 {
		logger.Printf("Starting Prometheus metrics on %s", cfg.PrometheusAddress())
		metrics.StartServer(cfg.PrometheusAddress(), logger)
	}

	// Initialize database for action history
	var db *database.ActionDB
	recorders := limiter.MultiRecorder{metrics.ActionRecorder{}}
	if cfg.DatabasePath != "" {
		logger.Printf("Opening action database: %s", cfg.DatabasePath)
		db, err = database.NewActionDB(cfg.DatabasePath)
		if err != nil {
			logger.Printf("ERROR: Failed to open database: %v", err)
			os.Exit(exitcodes.RuntimeError)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Printf("ERROR: Failed to close database: %v", err)
			}
		}()
		recorders = append(recorders, database.NewRecorder(db, logger))
	}

	// Build the engine around the real OS boundary
	sig := proc.NewSignaller()
	sampler := proc.NewSampler()
	lim := limiter.New(sig, sampler, limiter.Options{
		Period:     cfg.Period(),
		Hysteresis: cfg.Engine.HysteresisPercent,
		NoiseFloor: cfg.Engine.NoiseFloorPercent,
		Logger:     logger,
		Recorder:   recorders,
	})

	// Seed desired state from config; the engine stays disabled until a
	// client toggles it on
	lim.SetLimit(cfg.Engine.DefaultLimitPercent)
	if cfg.Engine.DefaultMode == "global" {
		lim.SetGlobal(cfg.Engine.DefaultLimitPercent)
	}
	seeded := lim.GetConfig()
	metrics.SetMode(seeded.Mode)
	metrics.SetLimitPercent(seeded.LimitPercent)
	metrics.SetEnabled(seeded.Enabled)

	logger.Printf("Starting limiter engine (period=%s hysteresis=%.1f mode=%s)",
		cfg.Period(), cfg.Engine.HysteresisPercent, seeded.Mode)
	lim.Start()

	mon := monitor.New(sampler, lim, time.Second, logger)
	mon.Start()

	apiServer := api.NewServer(cfg.APIAddress(), lim, mon, sig, sampler, logger,
		cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)
	apiServer.Start()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	received := <-sigChan
	logger.Printf("Received signal %v, shutting down gracefully...", received)

	ctx := context.Background()
	apiServer.Shutdown(ctx)
	mon.Stop()
	// Stop blocks until every suspended process has been resumed
	lim.Stop()
	metrics.Shutdown(ctx, logger)

	logger.Println("CPU Limiter Daemon stopped")
}
