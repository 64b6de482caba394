package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"encoding/json"
	"fmt"
	"math"
)

// StandardScaler applies z = (x - mean) / scale per feature, as fitted by a standard scaler.
type StandardScaler struct {
	mean  [types.NumFeatures]float64
	scale [types.NumFeatures]float64
}

// standardScalerJSON accepts both plain names and the fitted-attribute names an exporter
// may copy verbatim from the fitted object.
type standardScalerJSON struct {
	FeatureNames  []string  `json:"feature_names"`
	FeatureNamesA []string  `json:"feature_names_in_"`
	Mean          []float64 `json:"mean"`
	MeanA         []float64 `json:"mean_"`
	Scale         []float64 `json:"scale"`
	ScaleA        []float64 `json:"scale_"`
}

func LoadStandardScaler(data []byte) (*StandardScaler, error) {
	var raw standardScalerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse scaler: %w", err)
	}

	names := firstNonEmpty(raw.FeatureNames, raw.FeatureNamesA)
	mean := firstNonEmpty(raw.Mean, raw.MeanA)
	scale := firstNonEmpty(raw.Scale, raw.ScaleA)

	if names != nil {
		if err := CheckFeatureOrder(names); err != nil {
			return nil, err
		}
	}

	if len(mean) != types.NumFeatures || len(scale) != types.NumFeatures {
		return nil, fmt.Errorf("scaler expects %d features, got mean=%d scale=%d", types.NumFeatures, len(mean), len(scale))
	}

	scaler := &StandardScaler{}
	for i := 0; i < types.NumFeatures; i++ {
		if !isFinite(mean[i]) || !isFinite(scale[i]) {
			return nil, fmt.Errorf("scaler has non-finite parameters for feature %s", types.FeatureSpecs[i].Name)
		}
		scaler.mean[i] = mean[i]
		scaler.scale[i] = scale[i]
		if scaler.scale[i] == 0 {
			scaler.scale[i] = 1
		}
	}

	return scaler, nil
}

func NewStandardScaler(mean, scale [types.NumFeatures]float64) *StandardScaler {
	s := &StandardScaler{mean: mean, scale: scale}
	for i := range s.scale {
		if s.scale[i] == 0 {
			s.scale[i] = 1
		}
	}
	return s
}

func (s *StandardScaler) Transform(_ context.Context, raw types.FeatureVector) (types.FeatureVector, error) {
	values := raw.Values()
	for i := range values {
		values[i] = (values[i] - s.mean[i]) / s.scale[i]
	}
	return types.FeatureVectorFromValues(values), nil
}

// CheckFeatureOrder verifies that an artifact was fitted on the canonical column order.
func CheckFeatureOrder(names []string) error {
	if len(names) != types.NumFeatures {
		return fmt.Errorf("%w: expected %d features, artifact declares %d", ErrFeatureOrderMismatch, types.NumFeatures, len(names))
	}
	for i, name := range names {
		if name != types.FeatureSpecs[i].Name {
			return fmt.Errorf("%w: position %d is '%s', expected '%s'", ErrFeatureOrderMismatch, i, name, types.FeatureSpecs[i].Name)
		}
	}
	return nil
}

func firstNonEmpty[T any](values ...[]T) []T {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
