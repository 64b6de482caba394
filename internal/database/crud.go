package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoDeployment = errors.New("no artifact deployment recorded")

func RecordDeployment(ctx context.Context, txn *gorm.DB, deployment *ArtifactDeployment) error {
	if err := txn.WithContext(ctx).Create(deployment).Error; err != nil {
		slog.Error("error recording artifact deployment", "deployment_id", deployment.Id, "status", deployment.Status, "error", err)
		return fmt.Errorf("error recording artifact deployment: %w", err)
	}
	return nil
}

func GetDeployment(ctx context.Context, txn *gorm.DB, id uuid.UUID) (*ArtifactDeployment, error) {
	var deployment ArtifactDeployment
	if err := txn.WithContext(ctx).First(&deployment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDeployment
		}
		return nil, fmt.Errorf("error querying deployment %s: %w", id, err)
	}
	return &deployment, nil
}

func ListDeployments(ctx context.Context, txn *gorm.DB, limit int) ([]ArtifactDeployment, error) {
	var deployments []ArtifactDeployment
	if err := txn.WithContext(ctx).Order("creation_time DESC").Limit(limit).Find(&deployments).Error; err != nil {
		return nil, fmt.Errorf("error listing deployments: %w", err)
	}
	return deployments, nil
}
