package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type ArtifactDeployment struct {
	LoadDurationMs int64 `gorm:"not null;default:0"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&ArtifactDeployment{}, "LoadDurationMs"); err != nil {
		return fmt.Errorf("error adding LoadDurationMs column: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&ArtifactDeployment{}, "LoadDurationMs"); err != nil {
		return fmt.Errorf("error dropping LoadDurationMs column: %w", err)
	}

	return nil
}
