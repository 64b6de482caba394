package integrationtests

import (
	"context"
	"cosmic-classifier/cmd"
	"cosmic-classifier/internal/api"
	"cosmic-classifier/internal/config"
	"cosmic-classifier/internal/core"
	"cosmic-classifier/internal/storage"
	"cosmic-classifier/pkg/client"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var artifactFiles = []string{"manifest.yaml", "scaler.json", "stacking_model.json"}

func uploadArtifacts(t *testing.T, store storage.ObjectStore, prefix string) {
	for _, name := range artifactFiles {
		f, err := os.Open(filepath.Join("..", "core", "testdata", name))
		require.NoError(t, err)
		require.NoError(t, store.PutObject(context.Background(), prefix+name, f))
		f.Close()
	}
}

// startServer runs the same startup sequence as the api binary and returns a client
// for the resulting server.
func startServer(t *testing.T, cfg config.APIConfig, store storage.ObjectStore, db *gorm.DB) *client.Client {
	ctx := context.Background()

	require.NoError(t, cmd.LogArtifactInventory(ctx, store, cfg))

	manifest, err := cmd.ResolveManifest(ctx, store, cfg)
	require.NoError(t, err)

	start := time.Now()
	artifacts, err := core.LoadArtifacts(ctx, store, manifest, core.NewLoaders(cfg.LoaderOptions()))
	require.NoError(t, err)
	t.Cleanup(artifacts.Release)

	deploymentId, err := cmd.RecordDeployment(ctx, db, cfg, manifest, artifacts, time.Since(start), nil)
	require.NoError(t, err)

	svc, err := core.NewInferenceService(artifacts.Scaler, artifacts.Classifier, core.WithPredictionCache(cfg.PredictionCacheSize))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		api.NewPredictionService(svc, db, deploymentId, cfg.BatchWorkers, cfg.MaxBatchSize).AddRoutes(r)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return client.New(server.URL)
}

const (
	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start Postgres container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate Postgres container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get Postgres connection string")

	return connStr
}
