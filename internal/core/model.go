package core

import (
	"context"
	"cosmic-classifier/internal/core/python"
	"cosmic-classifier/internal/core/types"
	"fmt"
	"log/slog"
	"sync"
)

// ModelType identifies the format of a scaler or classifier artifact.
type ModelType string

const (
	StandardJSON ModelType = "standard_json"
	StackingJSON ModelType = "stacking_json"
	Onnx         ModelType = "onnx"
	RemoteV2     ModelType = "remote_v2"
	PythonPickle ModelType = "python_pickle"
)

// Tensor names produced by the standard sklearn-to-onnx converter with zipmap disabled.
const (
	onnxInputName         = "float_input"
	onnxLabelOutput       = "label"
	onnxProbabilityOutput = "probabilities"
)

// Scaler maps a raw feature vector to the normalized space the classifier was fitted in.
type Scaler interface {
	Transform(ctx context.Context, raw types.FeatureVector) (types.FeatureVector, error)
}

// Classifier predicts a label and a distribution over the three classes.
type Classifier interface {
	Predict(ctx context.Context, scaled types.FeatureVector) (types.Label, types.Distribution, error)
}

// Releaser is implemented by models holding native or process resources.
type Releaser interface {
	Release()
}

// Artifact is the raw content of one stored model file.
type Artifact struct {
	Key  string
	Data []byte
}

type ScalerLoader func(ctx context.Context, artifact Artifact) (Scaler, error)

type ClassifierLoader func(ctx context.Context, artifact Artifact) (Classifier, error)

type LoaderOptions struct {
	PythonExecutable string
	PluginScript     string
	PluginWorkDir    string

	RemoteURL       string
	RemoteModelName string
}

// NewLoaders wires scaler and classifier loaders around one python plugin process, started on
// first use, so pickle scalers and classifiers are served by the same interpreter.
type pythonRuntime struct {
	once sync.Once
	rt   *python.Runtime
	err  error
}

func (p *pythonRuntime) get(opts LoaderOptions) (*python.Runtime, error) {
	p.once.Do(func() {
		p.rt, p.err = python.StartRuntime(opts.PythonExecutable, opts.PluginScript, opts.PluginWorkDir)
	})
	return p.rt, p.err
}

type Loaders struct {
	Scalers     map[ModelType]ScalerLoader
	Classifiers map[ModelType]ClassifierLoader
}

func NewLoaders(opts LoaderOptions) Loaders {
	py := &pythonRuntime{}

	return Loaders{
		Scalers: map[ModelType]ScalerLoader{
			StandardJSON: func(_ context.Context, artifact Artifact) (Scaler, error) {
				return LoadStandardScaler(artifact.Data)
			},
			PythonPickle: func(ctx context.Context, artifact Artifact) (Scaler, error) {
				rt, err := py.get(opts)
				if err != nil {
					return nil, err
				}
				return rt.LoadScaler(ctx, artifact.Key, artifact.Data)
			},
		},
		Classifiers: map[ModelType]ClassifierLoader{
			StackingJSON: func(_ context.Context, artifact Artifact) (Classifier, error) {
				model, err := LoadStackingClassifier(artifact.Data)
				if err != nil {
					return nil, err
				}
				slog.Info("loaded stacking classifier", "key", artifact.Key, "estimators", model.EstimatorNames())
				return model, nil
			},
			Onnx: func(_ context.Context, artifact Artifact) (Classifier, error) {
				return LoadOnnxClassifier(artifact.Data)
			},
			RemoteV2: func(ctx context.Context, _ Artifact) (Classifier, error) {
				return NewRemoteClassifier(ctx, opts.RemoteURL, opts.RemoteModelName)
			},
			PythonPickle: func(ctx context.Context, artifact Artifact) (Classifier, error) {
				rt, err := py.get(opts)
				if err != nil {
					return nil, err
				}
				return rt.LoadClassifier(ctx, artifact.Key, artifact.Data)
			},
		},
	}
}

// NeedsArtifact reports whether the model type reads its parameters from storage.
func NeedsArtifact(modelType ModelType) bool {
	return modelType != RemoteV2
}

func (l Loaders) scaler(modelType ModelType) (ScalerLoader, error) {
	loader, ok := l.Scalers[modelType]
	if !ok {
		return nil, fmt.Errorf("%w: scaler type '%s'", ErrUnknownModelType, modelType)
	}
	return loader, nil
}

func (l Loaders) classifier(modelType ModelType) (ClassifierLoader, error) {
	loader, ok := l.Classifiers[modelType]
	if !ok {
		return nil, fmt.Errorf("%w: classifier type '%s'", ErrUnknownModelType, modelType)
	}
	return loader, nil
}

func release(model any) {
	if r, ok := model.(Releaser); ok {
		r.Release()
	}
}
