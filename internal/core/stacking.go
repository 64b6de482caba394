package core

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"encoding/json"
	"errors"
	"fmt"
)

// StackingClassifier combines base estimators through a final logistic regression. The final
// estimator sees every base estimator's class distribution, in order, followed by the scaled
// features when passthrough is enabled.
type StackingClassifier struct {
	estimators  []estimator
	names       []string
	passthrough bool
	final       *logisticRegressionEstimator
}

type stackingJSON struct {
	Classes        []int           `json:"classes"`
	Passthrough    bool            `json:"passthrough"`
	Estimators     []estimatorJSON `json:"estimators"`
	FinalEstimator estimatorJSON   `json:"final_estimator"`
}

func LoadStackingClassifier(data []byte) (*StackingClassifier, error) {
	var raw stackingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse stacking model: %w", err)
	}

	if raw.Classes != nil {
		if len(raw.Classes) != types.NumClasses {
			return nil, fmt.Errorf("%w: model has %d classes", ErrClassMismatch, len(raw.Classes))
		}
		for i, c := range raw.Classes {
			if c != i {
				return nil, fmt.Errorf("%w: class at position %d is %d", ErrClassMismatch, i, c)
			}
		}
	}

	if len(raw.Estimators) == 0 {
		return nil, errors.New("stacking model has no base estimators")
	}

	model := &StackingClassifier{passthrough: raw.Passthrough}
	for i, e := range raw.Estimators {
		est, err := buildEstimator(e, types.NumFeatures)
		if err != nil {
			return nil, fmt.Errorf("base estimator %d (%s): %w", i, e.Name, err)
		}
		model.estimators = append(model.estimators, est)
		model.names = append(model.names, e.Name)
	}

	if raw.FinalEstimator.Type != "" && raw.FinalEstimator.Type != logisticRegression {
		return nil, fmt.Errorf("unsupported final estimator type '%s'", raw.FinalEstimator.Type)
	}
	final, err := newLogisticRegression(raw.FinalEstimator.Coef, raw.FinalEstimator.Intercept, model.metaWidth())
	if err != nil {
		return nil, fmt.Errorf("final estimator: %w", err)
	}
	model.final = final

	return model, nil
}

func (m *StackingClassifier) metaWidth() int {
	width := len(m.estimators) * types.NumClasses
	if m.passthrough {
		width += types.NumFeatures
	}
	return width
}

func (m *StackingClassifier) Predict(_ context.Context, scaled types.FeatureVector) (types.Label, types.Distribution, error) {
	proba := m.PredictProba(scaled)
	return proba.Argmax(), proba, nil
}

func (m *StackingClassifier) PredictProba(scaled types.FeatureVector) types.Distribution {
	x := scaled.Slice()

	meta := make([]float64, 0, m.metaWidth())
	for _, est := range m.estimators {
		p := est.predictProba(x)
		meta = append(meta, p[:]...)
	}
	if m.passthrough {
		meta = append(meta, x...)
	}

	return m.final.predictProba(meta)
}

func (m *StackingClassifier) EstimatorNames() []string {
	return append([]string(nil), m.names...)
}
