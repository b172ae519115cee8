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

	"github.com/docsense/retrieval/internal/config"
	dbBadger "github.com/docsense/retrieval/internal/db/badger"
	"github.com/docsense/retrieval/internal/index/lexical"
	"github.com/docsense/retrieval/internal/index/semantic"
	logpkg "github.com/docsense/retrieval/internal/logger"
	"github.com/docsense/retrieval/internal/metrics"
	"github.com/docsense/retrieval/internal/repository/embcache"
	recordrepo "github.com/docsense/retrieval/internal/repository/record"
	chiTransport "github.com/docsense/retrieval/internal/transport/chi"
	openaiEmb "github.com/docsense/retrieval/internal/transport/openai"
	documentuc "github.com/docsense/retrieval/internal/usecase/document"
	healthuc "github.com/docsense/retrieval/internal/usecase/health"
	searchuc "github.com/docsense/retrieval/internal/usecase/search"
	"github.com/docsense/retrieval/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting retrieval API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_path", cfg.Storage.Path),
		zap.Int("dimension", cfg.Index.Dimension),
		zap.Float64("fusion_alpha", cfg.Index.FusionAlpha),
	)

	// Open the local record store
	store, err := dbBadger.NewStore(dbBadger.Config{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer store.Close()

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Indexes and repositories
	lexIndex := lexical.New()
	semIndex := semantic.New(cfg.Index.Dimension)
	records := recordrepo.New(store)

	// Use case services
	docSvc := documentuc.New(records, lexIndex, semIndex, logger).
		WithRebuildWorkers(cfg.Index.RebuildWorkers)
	searchSvc := searchuc.New(lexIndex, semIndex, records, logger).
		WithAlpha(cfg.Index.FusionAlpha).
		WithMaxCandidates(cfg.Index.MaxCandidates)
	healthSvc := healthuc.New(records, lexIndex, semIndex)

	// Rebuild in-memory indexes from the record store before serving
	ctx := context.Background()
	if err := docSvc.Rebuild(ctx); err != nil {
		logger.Fatal("Failed to rebuild indexes from store", zap.Error(err))
	}

	// Chi server; embedder is optional
	server := chiTransport.NewServer(docSvc, searchSvc, healthSvc, logger).
		WithPageLimits(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	if cfg.Embedding.Enabled() {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		// Cache embeddings in the local store keyed by text hash
		embedder := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
		server.WithEmbedder(embedder)
		healthSvc.WithEmbedder(base)
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Info("No embedding provider configured; accepting precomputed vectors only")
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

			// Canonical log line, one per request
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
