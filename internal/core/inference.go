package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"fmt"
	"log/slog"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	probabilityTolerance = 1e-6
	// float32 runtimes drift further from 1 than float64 ones
	distributionSumTolerance = 1e-3
)

// InferenceService owns the loaded scaler and classifier. Both are read-only after
// construction, so Predict is safe for concurrent use.
type InferenceService struct {
	scaler     Scaler
	classifier Classifier
	cache      *lru.Cache[types.FeatureVector, types.PredictionResult]
}

type Option func(*InferenceService) error

// WithPredictionCache memoizes results per raw vector. Predict is deterministic over
// immutable artifacts, so a cached result equals a recomputed one.
func WithPredictionCache(size int) Option {
	return func(s *InferenceService) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[types.FeatureVector, types.PredictionResult](size)
		if err != nil {
			return fmt.Errorf("error creating prediction cache: %w", err)
		}
		s.cache = cache
		return nil
	}
}

func NewInferenceService(scaler Scaler, classifier Classifier, opts ...Option) (*InferenceService, error) {
	s := &InferenceService{scaler: scaler, classifier: classifier}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *InferenceService) Predict(ctx context.Context, raw types.FeatureVector) (types.PredictionResult, error) {
	if err := raw.Validate(); err != nil {
		return types.PredictionResult{}, err
	}

	if s.cache != nil {
		if res, ok := s.cache.Get(raw); ok {
			return res, nil
		}
	}

	scaled, err := s.scaler.Transform(ctx, raw)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("error scaling features: %w", err)
	}

	label, proba, err := s.classifier.Predict(ctx, scaled)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("error running classifier: %w", err)
	}

	if err := validatePrediction(label, proba); err != nil {
		slog.Error("classifier returned invalid prediction", "label", int(label), "probabilities", proba[:], "error", err)
		return types.PredictionResult{}, err
	}

	res := types.PredictionResult{
		Label:         label,
		Confidence:    clamp01(proba.Max()),
		Probabilities: proba,
	}

	if s.cache != nil {
		s.cache.Add(raw, res)
	}

	return res, nil
}

func validatePrediction(label types.Label, proba types.Distribution) error {
	if !label.Valid() {
		return fmt.Errorf("%w: label %d is not one of 0, 1, 2", ErrInvalidPrediction, int(label))
	}
	for c, p := range proba {
		if math.IsNaN(p) || p < -probabilityTolerance || p > 1+probabilityTolerance {
			return fmt.Errorf("%w: probability for class %d is %v", ErrInvalidPrediction, c, p)
		}
	}
	if sum := proba.Sum(); math.Abs(sum-1) > distributionSumTolerance {
		return fmt.Errorf("%w: probabilities sum to %v", ErrInvalidPrediction, sum)
	}
	return nil
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

// Release frees models that hold native or process resources.
func (s *InferenceService) Release() {
	release(s.classifier)
	if any(s.scaler) != any(s.classifier) {
		release(s.scaler)
	}
}
