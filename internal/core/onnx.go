//go:build !windows

package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// OnnxClassifier runs an exported classifier graph. The onnxruntime environment must be
// initialized by the caller before loading.
type OnnxClassifier struct {
	session *ort.DynamicAdvancedSession
}

func LoadOnnxClassifier(onnxBytes []byte) (*OnnxClassifier, error) {
	if len(onnxBytes) == 0 {
		return nil, errors.New("onnx model is empty")
	}
	if !ort.IsInitialized() {
		return nil, errors.New("onnx runtime is not initialized, set ONNX_RUNTIME_DYLIB")
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		onnxBytes,
		[]string{onnxInputName},
		[]string{onnxLabelOutput, onnxProbabilityOutput},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory session: %w", err)
	}

	return &OnnxClassifier{session: session}, nil
}

func (m *OnnxClassifier) Predict(_ context.Context, scaled types.FeatureVector) (types.Label, types.Distribution, error) {
	input := make([]float32, types.NumFeatures)
	for i, v := range scaled.Values() {
		input[i] = float32(v)
	}

	inT, err := ort.NewTensor(ort.NewShape(1, types.NumFeatures), input)
	if err != nil {
		return 0, types.Distribution{}, err
	}
	defer inT.Destroy()

	labelT, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, types.Distribution{}, err
	}
	defer labelT.Destroy()

	probT, err := ort.NewEmptyTensor[float32](ort.NewShape(1, types.NumClasses))
	if err != nil {
		return 0, types.Distribution{}, err
	}
	defer probT.Destroy()

	if err := m.session.Run([]ort.Value{inT}, []ort.Value{labelT, probT}); err != nil {
		return 0, types.Distribution{}, fmt.Errorf("session run error: %w", err)
	}

	var proba types.Distribution
	for i, p := range probT.GetData() {
		proba[i] = float64(p)
	}

	return types.Label(labelT.GetData()[0]), proba, nil
}

func (m *OnnxClassifier) Release() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
