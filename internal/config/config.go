package config

import (
	"cosmic-classifier/internal/core"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type APIConfig struct {
	Port     string `env:"PORT" envDefault:"8001"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	ArtifactStore  string `env:"ARTIFACT_STORE" envDefault:"local"`
	ArtifactDir    string `env:"ARTIFACT_DIR" envDefault:"model"`
	ArtifactBucket string `env:"ARTIFACT_BUCKET"`
	ArtifactPrefix string `env:"ARTIFACT_PREFIX"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// When MANIFEST_KEY names an existing object it overrides the type/key settings below.
	ManifestKey    string         `env:"MANIFEST_KEY" envDefault:"manifest.yaml"`
	ScalerType     core.ModelType `env:"SCALER_TYPE" envDefault:"standard_json"`
	ScalerKey      string         `env:"SCALER_KEY" envDefault:"scaler.json"`
	ClassifierType core.ModelType `env:"CLASSIFIER_TYPE" envDefault:"stacking_json"`
	ClassifierKey  string         `env:"CLASSIFIER_KEY" envDefault:"stacking_model.json"`

	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB"`

	PythonExecutable   string `env:"PYTHON_EXECUTABLE" envDefault:"python3"`
	PythonPluginScript string `env:"PYTHON_PLUGIN_SCRIPT" envDefault:"plugin/plugin-python/plugin.py"`

	RemoteModelURL  string `env:"REMOTE_MODEL_URL"`
	RemoteModelName string `env:"REMOTE_MODEL_NAME"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"data/cosmic-classifier.db"`

	PredictionCacheSize int           `env:"PREDICTION_CACHE_SIZE" envDefault:"1024"`
	BatchWorkers        int           `env:"BATCH_WORKERS" envDefault:"4"`
	MaxBatchSize        int           `env:"MAX_BATCH_SIZE" envDefault:"1000"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	CorsAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

func (c *APIConfig) Validate() error {
	switch c.ArtifactStore {
	case "local":
	case "s3":
		if c.ArtifactBucket == "" {
			return fmt.Errorf("ARTIFACT_BUCKET is required when ARTIFACT_STORE=s3")
		}
	default:
		return fmt.Errorf("invalid ARTIFACT_STORE '%s', expected local or s3", c.ArtifactStore)
	}

	if c.PredictionCacheSize < 0 {
		return fmt.Errorf("PREDICTION_CACHE_SIZE must not be negative")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ArtifactKey resolves a key relative to ARTIFACT_PREFIX.
func (c *APIConfig) ArtifactKey(key string) string {
	if c.ArtifactPrefix == "" || key == "" {
		return key
	}
	return strings.TrimSuffix(c.ArtifactPrefix, "/") + "/" + key
}

// DefaultManifest is used when no manifest object is present.
func (c *APIConfig) DefaultManifest() core.Manifest {
	return core.Manifest{
		Scaler:     core.ArtifactSpec{Type: c.ScalerType, Key: c.ScalerKey},
		Classifier: core.ArtifactSpec{Type: c.ClassifierType, Key: c.ClassifierKey},
	}
}

func (c *APIConfig) LoaderOptions() core.LoaderOptions {
	return core.LoaderOptions{
		PythonExecutable: c.PythonExecutable,
		PluginScript:     c.PythonPluginScript,
		RemoteURL:        c.RemoteModelURL,
		RemoteModelName:  c.RemoteModelName,
	}
}

func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("invalid LOG_LEVEL '%s': %w", level, err)
	}
	return l, nil
}
