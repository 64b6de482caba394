package client_test

import (
	"context"
	backend "cosmic-classifier/internal/api"
	"cosmic-classifier/internal/core/types"
	"cosmic-classifier/pkg/api"
	"cosmic-classifier/pkg/client"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPredictor struct{}

func (fixedPredictor) Predict(ctx context.Context, raw types.FeatureVector) (types.PredictionResult, error) {
	return types.PredictionResult{
		Label:         types.Candidate,
		Confidence:    0.5,
		Probabilities: types.Distribution{0.2, 0.5, 0.3},
	}, nil
}

func setupServer(t *testing.T) *client.Client {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		backend.NewPredictionService(fixedPredictor{}, nil, uuid.Nil, 2, 10).AddRoutes(r)
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return client.New(server.URL)
}

func TestClientRoundTrip(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	features, err := c.Features(ctx)
	require.NoError(t, err)
	assert.Len(t, features, 10)

	form, err := c.ResetForm(ctx)
	require.NoError(t, err)

	res, err := c.Predict(ctx, form.Values)
	require.NoError(t, err)
	assert.Equal(t, "Candidate", res.Prediction)
	assert.Equal(t, "50.00%", res.ConfidencePercent)

	batch, err := c.PredictBatch(ctx, []api.PredictRequest{form.Values, {}})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.NotNil(t, batch.Results[0].Prediction)
	assert.Len(t, batch.Results[1].Missing, 10)
}

func TestClientErrors(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	_, err := c.Predict(ctx, api.PredictRequest{})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsIncompleteInput())
	assert.Contains(t, apiErr.Message, types.IncompleteInputMessage)

	_, err = c.Model(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
