package cmd

import (
	"context"
	"cosmic-classifier/internal/config"
	"cosmic-classifier/internal/core"
	"cosmic-classifier/internal/database"
	"cosmic-classifier/internal/storage"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// SetupLogging installs the default slog logger. When logFile is set, output is also
// written to a size-rotated file.
func SetupLogging(level slog.Level, logFile string) io.Closer {
	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)

	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotating)
		closer = rotating
	}

	log.SetOutput(out)
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	return closer
}

// Fatal logs err with its stack trace and exits.
func Fatal(msg string, err error) {
	err = xerrors.New(err)
	slog.Error(msg, slog.Any("error", err))
	fmt.Fprintln(os.Stderr, xerrors.Sprint(err))
	os.Exit(1)
}

func NewArtifactStore(cfg config.APIConfig) (storage.ObjectStore, error) {
	switch cfg.ArtifactStore {
	case "s3":
		store, err := storage.NewS3ObjectStore(storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, cfg.ArtifactBucket)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Validate(ctx, cfg.ArtifactPrefix); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return storage.NewLocalObjectStore(cfg.ArtifactDir)
	}
}

// ResolveManifest reads the manifest object if present, otherwise falls back to the
// scaler/classifier settings from the environment. Keys are resolved against the prefix.
func ResolveManifest(ctx context.Context, store storage.ObjectStore, cfg config.APIConfig) (core.Manifest, error) {
	manifest := cfg.DefaultManifest()

	if cfg.ManifestKey != "" {
		data, err := store.GetObject(ctx, cfg.ArtifactKey(cfg.ManifestKey))
		switch {
		case err == nil:
			manifest, err = core.ParseManifest(data)
			if err != nil {
				return core.Manifest{}, err
			}
			slog.Info("using artifact manifest", "key", cfg.ArtifactKey(cfg.ManifestKey))
		case errors.Is(err, storage.ErrObjectNotFound):
			slog.Info("no artifact manifest found, using environment settings", "key", cfg.ArtifactKey(cfg.ManifestKey))
		default:
			return core.Manifest{}, fmt.Errorf("error reading manifest: %w", err)
		}
	}

	manifest.Scaler.Key = cfg.ArtifactKey(manifest.Scaler.Key)
	manifest.Classifier.Key = cfg.ArtifactKey(manifest.Classifier.Key)

	return manifest, manifest.Validate()
}

type deploymentMetadata struct {
	Hostname            string `json:"hostname"`
	ArtifactStore       string `json:"artifact_store"`
	PredictionCache     int    `json:"prediction_cache_size"`
	ScalerSizeBytes     int    `json:"scaler_size_bytes"`
	ClassifierSizeBytes int    `json:"classifier_size_bytes"`
}

// RecordDeployment stores which artifacts this process loaded and returns the id of the
// new row. loadErr is non-nil for a failed startup.
func RecordDeployment(ctx context.Context, db *gorm.DB, cfg config.APIConfig, manifest core.Manifest, artifacts *core.Artifacts, duration time.Duration, loadErr error) (uuid.UUID, error) {
	hostname, _ := os.Hostname()

	d := &database.ArtifactDeployment{
		Id:             uuid.New(),
		ManifestKey:    cfg.ArtifactKey(cfg.ManifestKey),
		ScalerType:     string(manifest.Scaler.Type),
		ScalerKey:      manifest.Scaler.Key,
		ClassifierType: string(manifest.Classifier.Type),
		ClassifierKey:  manifest.Classifier.Key,
		Status:         database.DeploymentLoaded,
		LoadDurationMs: duration.Milliseconds(),
		CreationTime:   time.Now().UTC(),
	}

	meta := deploymentMetadata{
		Hostname:        hostname,
		ArtifactStore:   cfg.ArtifactStore,
		PredictionCache: cfg.PredictionCacheSize,
	}

	if artifacts != nil {
		d.ScalerChecksum = artifacts.ScalerInfo.Checksum
		d.ClassifierChecksum = artifacts.ClassifierInfo.Checksum
		meta.ScalerSizeBytes = artifacts.ScalerInfo.Size
		meta.ClassifierSizeBytes = artifacts.ClassifierInfo.Size
	}

	if loadErr != nil {
		d.Status = database.DeploymentFailed
		d.Error = sql.NullString{String: loadErr.Error(), Valid: true}
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error encoding deployment metadata: %w", err)
	}
	d.Metadata = datatypes.JSON(metaJSON)

	if err := database.RecordDeployment(ctx, db, d); err != nil {
		return uuid.Nil, err
	}
	return d.Id, nil
}

// LogArtifactInventory logs every object under the configured artifact prefix so a
// misnamed key shows up next to the manifest error it causes.
func LogArtifactInventory(ctx context.Context, store storage.ObjectStore, cfg config.APIConfig) error {
	objects, err := store.ListObjects(ctx, cfg.ArtifactPrefix)
	if err != nil {
		return fmt.Errorf("error listing artifacts: %w", err)
	}
	if len(objects) == 0 {
		slog.Warn("no artifacts found", "store", cfg.ArtifactStore, "prefix", cfg.ArtifactPrefix)
		return nil
	}
	for _, obj := range objects {
		slog.Info("found artifact", "key", obj.Name, "size_bytes", obj.Size)
	}
	return nil
}
