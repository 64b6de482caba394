package core

import (
	"cosmic-classifier/internal/core/types"
	"errors"
	"fmt"
)

var (
	ErrIncompleteInput      = types.ErrIncompleteInput
	ErrInvalidInput         = types.ErrInvalidInput
	ErrArtifactLoad         = errors.New("artifact load failed")
	ErrUnknownModelType     = errors.New("unknown model type")
	ErrFeatureOrderMismatch = errors.New("feature order does not match fitted order")
	ErrClassMismatch        = errors.New("class names do not match fitted classes")
	ErrInvalidPrediction    = errors.New("classifier returned an invalid prediction")
)

// ArtifactLoadError is fatal at startup: the service cannot run without both artifacts.
type ArtifactLoadError struct {
	Artifact string
	Key      string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("failed to load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("failed to load %s artifact '%s': %v", e.Artifact, e.Key, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

func (e *ArtifactLoadError) Is(target error) bool {
	return target == ErrArtifactLoad
}
