package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DeploymentLoaded string = "LOADED"
	DeploymentFailed string = "FAILED"
)

// ArtifactDeployment records one attempt by a server process to load a scaler and
// classifier pair. Predictions are never stored.
type ArtifactDeployment struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ManifestKey string

	ScalerType     string `gorm:"size:20;not null"`
	ScalerKey      string
	ScalerChecksum string `gorm:"size:64"`

	ClassifierType     string `gorm:"size:20;not null"`
	ClassifierKey      string
	ClassifierChecksum string `gorm:"size:64"`

	Status         string `gorm:"size:20;not null"`
	Error          sql.NullString
	LoadDurationMs int64 `gorm:"not null;default:0"`

	Metadata datatypes.JSON `gorm:"type:jsonb"` // hostname, artifact_store, prediction_cache_size, scaler_size_bytes, classifier_size_bytes

	CreationTime time.Time `gorm:"index"`
}
