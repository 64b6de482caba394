package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInferenceServer(t *testing.T, outputs []inferTensor) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/models/koi", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(modelMetadata{Name: "koi", Platform: "onnxruntime_onnx"})
	})
	mux.HandleFunc("POST /v2/models/koi/infer", func(w http.ResponseWriter, r *http.Request) {
		var req inferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Inputs) != 1 || len(req.Inputs[0].Data) != types.NumFeatures {
			http.Error(w, "bad input", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(inferResponse{ModelName: "koi", Outputs: outputs})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRemoteClassifier(t *testing.T) {
	server := newInferenceServer(t, []inferTensor{
		{Name: "label", Shape: []int{1}, Datatype: "INT64", Data: []float64{1}},
		{Name: "probabilities", Shape: []int{1, 3}, Datatype: "FP32", Data: []float64{0.1, 0.7, 0.2}},
	})

	model, err := NewRemoteClassifier(context.Background(), server.URL, "koi")
	require.NoError(t, err)

	label, proba, err := model.Predict(context.Background(), scenarioA)
	require.NoError(t, err)
	assert.Equal(t, types.Candidate, label)
	assert.Equal(t, types.Distribution{0.1, 0.7, 0.2}, proba)
}

func TestRemoteClassifierLabelFromProbabilities(t *testing.T) {
	server := newInferenceServer(t, []inferTensor{
		{Name: "probabilities", Data: []float64{0.6, 0.3, 0.1}},
	})

	model, err := NewRemoteClassifier(context.Background(), server.URL, "koi")
	require.NoError(t, err)

	label, _, err := model.Predict(context.Background(), scenarioA)
	require.NoError(t, err)
	assert.Equal(t, types.FalsePositive, label)
}

func TestRemoteClassifierBadOutputs(t *testing.T) {
	server := newInferenceServer(t, []inferTensor{
		{Name: "probabilities", Data: []float64{0.5, 0.5}},
	})

	model, err := NewRemoteClassifier(context.Background(), server.URL, "koi")
	require.NoError(t, err)

	_, _, err = model.Predict(context.Background(), scenarioA)
	assert.ErrorIs(t, err, ErrInvalidPrediction)
}

func TestRemoteClassifierUnknownModel(t *testing.T) {
	server := newInferenceServer(t, nil)

	_, err := NewRemoteClassifier(context.Background(), server.URL, "other")
	assert.ErrorContains(t, err, "returned 404")

	_, err = NewRemoteClassifier(context.Background(), "", "koi")
	assert.Error(t, err)
}
