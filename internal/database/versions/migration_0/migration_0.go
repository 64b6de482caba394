package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArtifactDeployment struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ManifestKey string

	ScalerType     string `gorm:"size:20;not null"`
	ScalerKey      string
	ScalerChecksum string `gorm:"size:64"`

	ClassifierType     string `gorm:"size:20;not null"`
	ClassifierKey      string
	ClassifierChecksum string `gorm:"size:64"`

	Status string `gorm:"size:20;not null"`
	Error  sql.NullString

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreationTime time.Time `gorm:"index"`
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&ArtifactDeployment{})
}
