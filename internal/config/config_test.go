package config_test

import (
	"cosmic-classifier/internal/config"
	"cosmic-classifier/internal/core"
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var cfg config.APIConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, "local", cfg.ArtifactStore)
	assert.Equal(t, core.StandardJSON, cfg.ScalerType)
	assert.Equal(t, core.StackingJSON, cfg.ClassifierType)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.CorsAllowedOrigins)

	manifest := cfg.DefaultManifest()
	assert.Equal(t, "scaler.json", manifest.Scaler.Key)
	assert.NoError(t, manifest.Validate())
}

func TestParseFromEnvironment(t *testing.T) {
	var cfg config.APIConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"ARTIFACT_STORE":        "s3",
		"ARTIFACT_BUCKET":       "models",
		"ARTIFACT_PREFIX":       "koi/v3/",
		"CLASSIFIER_TYPE":       "onnx",
		"CLASSIFIER_KEY":        "model.onnx",
		"PREDICTION_CACHE_SIZE": "0",
		"CORS_ALLOWED_ORIGINS":  "http://localhost:3000,https://example.org",
		"LOG_LEVEL":             "debug",
	}}))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, core.Onnx, cfg.ClassifierType)
	assert.Equal(t, "koi/v3/model.onnx", cfg.ArtifactKey(cfg.ClassifierKey))
	assert.Equal(t, []string{"http://localhost:3000", "https://example.org"}, cfg.CorsAllowedOrigins)

	level, err := config.ParseLogLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestValidate(t *testing.T) {
	cfg := config.APIConfig{ArtifactStore: "s3", LogLevel: "info"}
	assert.Error(t, cfg.Validate())

	cfg = config.APIConfig{ArtifactStore: "ftp", LogLevel: "info"}
	assert.Error(t, cfg.Validate())

	cfg = config.APIConfig{ArtifactStore: "local", LogLevel: "loud"}
	assert.Error(t, cfg.Validate())

	cfg = config.APIConfig{ArtifactStore: "local", LogLevel: "warn", PredictionCacheSize: -1, RequestTimeout: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg = config.APIConfig{ArtifactStore: "local", LogLevel: "warn", RequestTimeout: time.Minute}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequestTimeout(t *testing.T) {
	var cfg config.APIConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"REQUEST_TIMEOUT": "0s",
	}}))
	assert.Equal(t, time.Duration(0), cfg.RequestTimeout)
	assert.ErrorContains(t, cfg.Validate(), "REQUEST_TIMEOUT")

	cfg.RequestTimeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "REQUEST_TIMEOUT")

	cfg.RequestTimeout = time.Second
	assert.NoError(t, cfg.Validate())
}
