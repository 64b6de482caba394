//go:build windows

package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"errors"
)

var ErrOnnxNotSupportedOnWindows = errors.New("ONNX models are not supported on Windows")

type OnnxClassifier struct{}

func LoadOnnxClassifier(onnxBytes []byte) (*OnnxClassifier, error) {
	return nil, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxClassifier) Predict(_ context.Context, _ types.FeatureVector) (types.Label, types.Distribution, error) {
	return 0, types.Distribution{}, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxClassifier) Release() {
	// no-op
}
