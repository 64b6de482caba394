package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScaler(t *testing.T) *StandardScaler {
	data, err := os.ReadFile("testdata/scaler.json")
	require.NoError(t, err)
	scaler, err := LoadStandardScaler(data)
	require.NoError(t, err)
	return scaler
}

func TestStandardScalerTransform(t *testing.T) {
	scaler := loadTestScaler(t)

	scaled, err := scaler.Transform(context.Background(), scenarioA)
	require.NoError(t, err)

	expected := [types.NumFeatures]float64{
		-0.5995400183992641, -0.5131375579598146, -0.28320237930221076, -0.16017964071856286, -0.03285027293995321,
		-0.3077406383513446, -0.259538152610442, 0.20930232558139708, -0.11908646003262642, -0.7681159420289859,
	}
	for i, v := range scaled.Values() {
		assert.InDelta(t, expected[i], v, 1e-12, types.FeatureSpecs[i].Name)
	}
}

func TestStandardScalerZeroScale(t *testing.T) {
	scaler := NewStandardScaler([types.NumFeatures]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, [types.NumFeatures]float64{})

	scaled, err := scaler.Transform(context.Background(), types.FeatureVector{OrbitalPeriod: 3})
	require.NoError(t, err)
	assert.Equal(t, 2.0, scaled.OrbitalPeriod)
	assert.Equal(t, -1.0, scaled.KeplerMagnitude)
}

func TestLoadStandardScalerPlainNames(t *testing.T) {
	data := []byte(`{"mean": [0,0,0,0,0,0,0,0,0,0], "scale": [2,2,2,2,2,2,2,2,2,2]}`)
	scaler, err := LoadStandardScaler(data)
	require.NoError(t, err)

	scaled, err := scaler.Transform(context.Background(), types.FeatureVector{TransitDepth: 5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, scaled.TransitDepth)
}

func TestLoadStandardScalerErrors(t *testing.T) {
	_, err := LoadStandardScaler([]byte(`{"mean": [1,2,3], "scale": [1,2,3]}`))
	assert.ErrorContains(t, err, "scaler expects 10 features")

	_, err = LoadStandardScaler([]byte(`not json`))
	assert.ErrorContains(t, err, "unable to parse scaler")

	swapped := []byte(`{
		"feature_names_in_": ["koi_duration","koi_period","koi_depth","koi_impact","koi_prad","koi_model_snr","koi_steff","koi_slogg","koi_srad","koi_kepmag"],
		"mean_": [0,0,0,0,0,0,0,0,0,0],
		"scale_": [1,1,1,1,1,1,1,1,1,1]
	}`)
	_, err = LoadStandardScaler(swapped)
	assert.ErrorIs(t, err, ErrFeatureOrderMismatch)
}

func TestCheckFeatureOrder(t *testing.T) {
	assert.NoError(t, CheckFeatureOrder(types.FeatureNames()))
	assert.ErrorIs(t, CheckFeatureOrder(types.FeatureNames()[:9]), ErrFeatureOrderMismatch)
}
