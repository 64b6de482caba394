package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

const DefaultManifestKey = "manifest.yaml"

type ArtifactSpec struct {
	Type ModelType `yaml:"type"`
	Key  string    `yaml:"key"`
}

// Manifest describes the scaler and classifier pair to serve. Features and Classes are
// optional; when present they must match the canonical order the service encodes inputs
// and decodes labels with.
type Manifest struct {
	Scaler     ArtifactSpec `yaml:"scaler"`
	Classifier ArtifactSpec `yaml:"classifier"`
	Features   []string     `yaml:"features,omitempty"`
	Classes    []string     `yaml:"classes,omitempty"`
}

func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("error parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (m Manifest) Validate() error {
	if m.Scaler.Type == "" {
		return errors.New("manifest is missing scaler type")
	}
	if m.Classifier.Type == "" {
		return errors.New("manifest is missing classifier type")
	}
	if NeedsArtifact(m.Scaler.Type) && m.Scaler.Key == "" {
		return errors.New("manifest is missing scaler key")
	}
	if NeedsArtifact(m.Classifier.Type) && m.Classifier.Key == "" {
		return errors.New("manifest is missing classifier key")
	}
	if len(m.Features) > 0 {
		if err := CheckFeatureOrder(m.Features); err != nil {
			return err
		}
	}
	if len(m.Classes) > 0 && !slices.Equal(m.Classes, types.ClassNames[:]) {
		return fmt.Errorf("%w: manifest classes %v, expected %v", ErrClassMismatch, m.Classes, types.ClassNames)
	}
	return nil
}

// ArtifactReader is the read side of an object store.
type ArtifactReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type ArtifactInfo struct {
	Type     ModelType
	Key      string
	Checksum string
	Size     int
}

type Artifacts struct {
	Scaler     Scaler
	Classifier Classifier

	ScalerInfo     ArtifactInfo
	ClassifierInfo ArtifactInfo
}

func (a *Artifacts) Release() {
	release(a.Classifier)
	release(a.Scaler)
}

func fetchArtifact(ctx context.Context, reader ArtifactReader, spec ArtifactSpec) (Artifact, ArtifactInfo, error) {
	info := ArtifactInfo{Type: spec.Type, Key: spec.Key}
	if !NeedsArtifact(spec.Type) {
		return Artifact{Key: spec.Key}, info, nil
	}

	data, err := reader.GetObject(ctx, spec.Key)
	if err != nil {
		return Artifact{}, info, err
	}

	sum := sha256.Sum256(data)
	info.Checksum = hex.EncodeToString(sum[:])
	info.Size = len(data)

	return Artifact{Key: spec.Key, Data: data}, info, nil
}

// LoadArtifacts fetches and deserializes the scaler and classifier concurrently. If either
// fails, whatever did load is released and an *ArtifactLoadError is returned.
func LoadArtifacts(ctx context.Context, reader ArtifactReader, manifest Manifest, loaders Loaders) (*Artifacts, error) {
	scalerLoader, err := loaders.scaler(manifest.Scaler.Type)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: "scaler", Key: manifest.Scaler.Key, Err: err}
	}
	classifierLoader, err := loaders.classifier(manifest.Classifier.Type)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: "classifier", Key: manifest.Classifier.Key, Err: err}
	}

	start := time.Now()
	out := &Artifacts{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		artifact, info, err := fetchArtifact(gctx, reader, manifest.Scaler)
		if err != nil {
			return &ArtifactLoadError{Artifact: "scaler", Key: manifest.Scaler.Key, Err: err}
		}
		scaler, err := scalerLoader(gctx, artifact)
		if err != nil {
			return &ArtifactLoadError{Artifact: "scaler", Key: manifest.Scaler.Key, Err: err}
		}
		out.Scaler, out.ScalerInfo = scaler, info
		return nil
	})

	g.Go(func() error {
		artifact, info, err := fetchArtifact(gctx, reader, manifest.Classifier)
		if err != nil {
			return &ArtifactLoadError{Artifact: "classifier", Key: manifest.Classifier.Key, Err: err}
		}
		classifier, err := classifierLoader(gctx, artifact)
		if err != nil {
			return &ArtifactLoadError{Artifact: "classifier", Key: manifest.Classifier.Key, Err: err}
		}
		out.Classifier, out.ClassifierInfo = classifier, info
		return nil
	})

	if err := g.Wait(); err != nil {
		out.Release()
		return nil, err
	}

	slog.Info("loaded model artifacts",
		"scaler_type", manifest.Scaler.Type, "scaler_key", manifest.Scaler.Key,
		"classifier_type", manifest.Classifier.Type, "classifier_key", manifest.Classifier.Key,
		"duration", time.Since(start))

	return out, nil
}
