package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteClassifier calls a model server speaking the open inference (v2) protocol. The
// scaled vector is sent as one FP64 row; the server must return a "label" output and a
// "probabilities" output with three values.
type RemoteClassifier struct {
	client    *resty.Client
	modelName string
}

type inferTensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

type inferRequest struct {
	Inputs []inferTensor `json:"inputs"`
}

type inferResponse struct {
	ModelName string        `json:"model_name"`
	Outputs   []inferTensor `json:"outputs"`
}

type modelMetadata struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

func NewRemoteClassifier(ctx context.Context, baseURL, modelName string) (*RemoteClassifier, error) {
	if baseURL == "" || modelName == "" {
		return nil, errors.New("remote classifier requires REMOTE_MODEL_URL and REMOTE_MODEL_NAME")
	}

	m := &RemoteClassifier{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(10 * time.Second),
		modelName: modelName,
	}

	// Fail at startup rather than on the first request if the model is not served.
	var meta modelMetadata
	res, err := m.client.R().
		SetContext(ctx).
		SetResult(&meta).
		Get("/v2/models/" + modelName)
	if err != nil {
		return nil, fmt.Errorf("unable to reach model server: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("model server returned %d for model '%s': %s", res.StatusCode(), modelName, res.String())
	}

	slog.Info("connected to remote classifier", "url", baseURL, "model", meta.Name, "platform", meta.Platform)

	return m, nil
}

func (m *RemoteClassifier) Predict(ctx context.Context, scaled types.FeatureVector) (types.Label, types.Distribution, error) {
	req := inferRequest{
		Inputs: []inferTensor{{
			Name:     onnxInputName,
			Shape:    []int{1, types.NumFeatures},
			Datatype: "FP64",
			Data:     scaled.Slice(),
		}},
	}

	res, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/v2/models/" + m.modelName + "/infer")
	if err != nil {
		return 0, types.Distribution{}, fmt.Errorf("remote inference failed: %w", err)
	}
	if !res.IsSuccess() {
		return 0, types.Distribution{}, fmt.Errorf("remote inference returned %d: %s", res.StatusCode(), res.String())
	}

	var out inferResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return 0, types.Distribution{}, fmt.Errorf("error parsing remote inference response: %w", err)
	}

	return parseInferOutputs(out.Outputs)
}

func parseInferOutputs(outputs []inferTensor) (types.Label, types.Distribution, error) {
	var label types.Label
	var proba types.Distribution
	foundLabel, foundProba := false, false

	for _, output := range outputs {
		switch output.Name {
		case onnxLabelOutput:
			if len(output.Data) != 1 {
				return 0, proba, fmt.Errorf("%w: label output has %d values", ErrInvalidPrediction, len(output.Data))
			}
			label = types.Label(int(output.Data[0]))
			foundLabel = true
		case onnxProbabilityOutput:
			if len(output.Data) != types.NumClasses {
				return 0, proba, fmt.Errorf("%w: probabilities output has %d values", ErrInvalidPrediction, len(output.Data))
			}
			copy(proba[:], output.Data)
			foundProba = true
		}
	}

	if !foundProba {
		return 0, proba, fmt.Errorf("%w: response has no '%s' output", ErrInvalidPrediction, onnxProbabilityOutput)
	}
	if !foundLabel {
		label = proba.Argmax()
	}
	return label, proba, nil
}
