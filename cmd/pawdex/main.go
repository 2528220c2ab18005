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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/config"
	dbRedis "github.com/pawdex/pawdex/internal/db/redis"
	"github.com/pawdex/pawdex/internal/imaging"
	logpkg "github.com/pawdex/pawdex/internal/logger"
	"github.com/pawdex/pawdex/internal/metrics"
	"github.com/pawdex/pawdex/internal/repository/cache"
	reportrepo "github.com/pawdex/pawdex/internal/repository/report"
	"github.com/pawdex/pawdex/internal/storage"
	chiTransport "github.com/pawdex/pawdex/internal/transport/chi"
	"github.com/pawdex/pawdex/internal/transport/similarity"
	duplicateuc "github.com/pawdex/pawdex/internal/usecase/duplicate"
	featuresuc "github.com/pawdex/pawdex/internal/usecase/features"
	healthuc "github.com/pawdex/pawdex/internal/usecase/health"
	reportuc "github.com/pawdex/pawdex/internal/usecase/report"
	searchuc "github.com/pawdex/pawdex/internal/usecase/search"
	"github.com/pawdex/pawdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pawdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	if err := reportrepo.EnsureIndex(ctx, store); err != nil {
		logger.Fatal("Failed to ensure report index", zap.Error(err))
	}

	// Register application metrics explicitly (no init())
	metrics.RegisterAppMetrics()

	files, err := storage.NewFileStore(cfg.Media.Dir)
	if err != nil {
		logger.Fatal("Failed to create media store", zap.Error(err))
	}
	pipeline := imaging.NewPipeline(files, cfg.Media)

	// Cache driver: Redis shares invalidation across instances, memory is
	// per-instance and meant for local runs.
	var appCache *cache.Cache
	switch cfg.Cache.Driver {
	case "memory":
		appCache = cache.New(cache.NewMemoryStore(time.Minute), metrics.CacheTotal, logger)
	default:
		appCache = cache.New(store, metrics.CacheTotal, logger)
	}

	simClient := similarity.New(cfg.Similarity)

	// Background feature registration; drained on shutdown.
	worker := featuresuc.NewWorker(simClient, cfg.Similarity.RegisterRetry, logger)

	repo := reportrepo.New(store)
	dupSvc := duplicateuc.New(repo, cfg.Duplicates, logger)
	reportSvc := reportuc.New(repo, dupSvc, pipeline, files, worker, simClient, appCache, logger)
	searchSvc := searchuc.New(repo, simClient, appCache, cfg.Search, cfg.Cache, logger)
	healthSvc := healthuc.New(store, files)

	server := chiTransport.NewServer(reportSvc, searchSvc, healthSvc, logger).
		WithStackTraces(env != "prod")

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Flush queued feature registrations before exiting.
	worker.Close()

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
