package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioA = types.FeatureVector{
	OrbitalPeriod:         10.5,
	TransitDuration:       2.3,
	TransitDepth:          500,
	ImpactParameter:       0.2,
	PlanetRadius:          1.8,
	SignalToNoise:         15.0,
	StellarTemperature:    5500,
	StellarSurfaceGravity: 4.4,
	StellarRadius:         1.0,
	KeplerMagnitude:       13.2,
}

func newTestService(t *testing.T, opts ...Option) *InferenceService {
	svc, err := NewInferenceService(loadTestScaler(t), loadTestStacking(t), opts...)
	require.NoError(t, err)
	return svc
}

func TestInferenceScenarios(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name       string
		raw        types.FeatureVector
		label      types.Label
		confidence float64
	}{
		{
			name:       "reference observation",
			raw:        scenarioA,
			label:      types.Confirmed,
			confidence: 0.9534411045320427,
		},
		{
			name:       "all zero",
			raw:        types.FeatureVector{},
			label:      types.Confirmed,
			confidence: 0.9883732055871296,
		},
		{
			name: "negative values",
			raw: types.FeatureVectorFromValues([types.NumFeatures]float64{
				-5, -1, -100, -0.5, -1, -10, -300, -1, -0.1, -2,
			}),
			label:      types.Confirmed,
			confidence: 0.9884578014448752,
		},
		{
			name: "giant companion",
			raw: types.FeatureVectorFromValues([types.NumFeatures]float64{
				1.2, 8, 300000, 1.5, 30000, 40, 6000, 4.3, 1.2, 14,
			}),
			label:      types.FalsePositive,
			confidence: 0.9614337239672079,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := svc.Predict(context.Background(), test.raw)
			require.NoError(t, err)

			assert.Equal(t, test.label, res.Label)
			assert.InDelta(t, test.confidence, res.Confidence, 1e-9)
			assert.InDelta(t, 1.0, res.Probabilities.Sum(), 1e-6)
			assert.Equal(t, res.Probabilities.Max(), res.Confidence)
			assert.Equal(t, res.Probabilities.Argmax(), res.Label)
		})
	}
}

func TestInferenceDeterministic(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Predict(context.Background(), scenarioA)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		res, err := svc.Predict(context.Background(), scenarioA)
		require.NoError(t, err)
		assert.Equal(t, first, res)
	}
}

func TestIncompleteInputNeverReachesClassifier(t *testing.T) {
	classifier := &countingClassifier{label: types.Candidate, proba: types.Distribution{0.2, 0.5, 0.3}}
	svc, err := NewInferenceService(NewStandardScaler([types.NumFeatures]float64{}, [types.NumFeatures]float64{}), classifier)
	require.NoError(t, err)

	partial := types.PartialFromVector(scenarioA)
	partial[3] = nil

	raw, err := partial.Complete()
	if err == nil {
		_, _ = svc.Predict(context.Background(), raw)
	}
	assert.ErrorIs(t, err, ErrIncompleteInput)
	assert.Equal(t, 0, classifier.calls)
}

type countingClassifier struct {
	calls    int
	released int
	label    types.Label
	proba    types.Distribution
	err      error
}

func (c *countingClassifier) Predict(ctx context.Context, scaled types.FeatureVector) (types.Label, types.Distribution, error) {
	c.calls++
	return c.label, c.proba, c.err
}

func (c *countingClassifier) Release() {
	c.released++
}

func TestPredictionCache(t *testing.T) {
	classifier := &countingClassifier{label: types.Candidate, proba: types.Distribution{0.2, 0.5, 0.3}}
	svc, err := NewInferenceService(loadTestScaler(t), classifier, WithPredictionCache(2))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := svc.Predict(ctx, scenarioA)
	require.NoError(t, err)
	second, err := svc.Predict(ctx, scenarioA)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, classifier.calls)

	other := scenarioA
	other.KeplerMagnitude = 14
	_, err = svc.Predict(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, classifier.calls)
}

func TestPredictionCacheDisabled(t *testing.T) {
	classifier := &countingClassifier{label: types.Candidate, proba: types.Distribution{0.2, 0.5, 0.3}}
	svc, err := NewInferenceService(loadTestScaler(t), classifier, WithPredictionCache(0))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Predict(context.Background(), scenarioA)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, classifier.calls)
}

func TestInvalidPredictions(t *testing.T) {
	tests := []struct {
		name  string
		label types.Label
		proba types.Distribution
	}{
		{name: "label out of range", label: 3, proba: types.Distribution{0.2, 0.5, 0.3}},
		{name: "negative label", label: -1, proba: types.Distribution{0.2, 0.5, 0.3}},
		{name: "probability above one", label: 0, proba: types.Distribution{1.5, -0.25, -0.25}},
		{name: "nan probability", label: 0, proba: types.Distribution{math.NaN(), 0.5, 0.5}},
		{name: "does not sum to one", label: 1, proba: types.Distribution{0.1, 0.2, 0.3}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			classifier := &countingClassifier{label: test.label, proba: test.proba}
			svc, err := NewInferenceService(loadTestScaler(t), classifier)
			require.NoError(t, err)

			_, err = svc.Predict(context.Background(), scenarioA)
			assert.ErrorIs(t, err, ErrInvalidPrediction)
		})
	}
}

func TestClassifierErrorPropagates(t *testing.T) {
	classifier := &countingClassifier{err: errors.New("runtime crashed")}
	svc, err := NewInferenceService(loadTestScaler(t), classifier)
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), scenarioA)
	assert.ErrorContains(t, err, "runtime crashed")
}

func TestConfidenceClamped(t *testing.T) {
	classifier := &countingClassifier{label: 2, proba: types.Distribution{0, 0, 1 + 5e-7}}
	svc, err := NewInferenceService(loadTestScaler(t), classifier)
	require.NoError(t, err)

	res, err := svc.Predict(context.Background(), scenarioA)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)
}

type releasingModel struct {
	countingClassifier
}

func (m *releasingModel) Transform(ctx context.Context, raw types.FeatureVector) (types.FeatureVector, error) {
	return raw, nil
}

func TestReleaseSharedModelOnce(t *testing.T) {
	model := &releasingModel{}
	svc, err := NewInferenceService(model, model)
	require.NoError(t, err)

	svc.Release()
	assert.Equal(t, 1, model.released)

	classifier := &countingClassifier{}
	svc, err = NewInferenceService(loadTestScaler(t), classifier)
	require.NoError(t, err)
	svc.Release()
	assert.Equal(t, 1, classifier.released)
}

func TestNonFiniteInputRejected(t *testing.T) {
	classifier := &countingClassifier{label: types.Candidate, proba: types.Distribution{0.2, 0.5, 0.3}}
	svc, err := NewInferenceService(loadTestScaler(t), classifier)
	require.NoError(t, err)

	for _, value := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		raw := scenarioA
		raw.OrbitalPeriod = value

		_, err := svc.Predict(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, 0, classifier.calls)
}
