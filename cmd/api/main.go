package main

import (
	"context"
	"cosmic-classifier/cmd"
	"cosmic-classifier/internal/api"
	"cosmic-classifier/internal/config"
	"cosmic-classifier/internal/core"
	"cosmic-classifier/internal/database"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cmd.LoadEnvFile()

	var cfg config.APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logCloser := cmd.SetupLogging(level, cfg.LogFile)
	defer logCloser.Close()

	slog.Info("starting cosmic classifier", "port", cfg.Port, "artifact_store", cfg.ArtifactStore)

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := cmd.NewArtifactStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create artifact store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := cmd.LogArtifactInventory(ctx, store, cfg); err != nil {
		slog.Warn("unable to list artifacts", "error", err)
	}

	manifest, err := cmd.ResolveManifest(ctx, store, cfg)
	if err != nil {
		cmd.Fatal("invalid artifact manifest", err)
	}

	if manifest.Classifier.Type == core.Onnx {
		if cfg.OnnxRuntimeDylib == "" {
			log.Fatalf("ONNX_RUNTIME_DYLIB must be set for onnx classifiers")
		}
		destroy, err := initOnnx(cfg.OnnxRuntimeDylib)
		if err != nil {
			log.Fatalf("could not init ONNX Runtime: %v", err)
		}
		defer destroy()
	}

	// The server does not accept requests until both artifacts are loaded.
	start := time.Now()
	artifacts, err := core.LoadArtifacts(ctx, store, manifest, core.NewLoaders(cfg.LoaderOptions()))
	deploymentId, recordErr := cmd.RecordDeployment(ctx, db, cfg, manifest, artifacts, time.Since(start), err)
	if recordErr != nil {
		slog.Error("unable to record deployment", "error", recordErr)
	}
	if err != nil {
		cmd.Fatal("failed to load model artifacts", err)
	}

	service, err := core.NewInferenceService(artifacts.Scaler, artifacts.Classifier, core.WithPredictionCache(cfg.PredictionCacheSize))
	if err != nil {
		artifacts.Release()
		log.Fatalf("Failed to create inference service: %v", err)
	}
	defer service.Release()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	apiHandler := api.NewPredictionService(service, db, deploymentId, cfg.BatchWorkers, cfg.MaxBatchSize)

	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
