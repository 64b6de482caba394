// Package form holds the presentation-side state of the single prediction form: the ten
// entered values and whether the next render should show defaults.
package form

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"errors"
	"fmt"
	"math"
	"strings"
)

type Predictor interface {
	Predict(ctx context.Context, raw types.FeatureVector) (types.PredictionResult, error)
}

type Form struct {
	values       types.PartialVector
	resetPending bool
}

// New returns a form with every field empty.
func New() *Form {
	return &Form{}
}

// Reset sets every field to its default and marks the reset as pending until the next
// edit. It never calls the predictor.
func (f *Form) Reset() {
	for i, spec := range types.FeatureSpecs {
		value := spec.Default
		f.values[i] = &value
	}
	f.resetPending = true
}

func (f *Form) ResetPending() bool {
	return f.resetPending
}

// Set enters a value. NaN empties the field and infinities are rejected.
func (f *Form) Set(name string, value float64) error {
	idx := types.FeatureIndex(name)
	if idx < 0 {
		return fmt.Errorf("unknown field '%s'", name)
	}
	if math.IsInf(value, 0) {
		return &types.InvalidInputError{Invalid: []string{name}}
	}
	if math.IsNaN(value) {
		f.values[idx] = nil
	} else {
		f.values[idx] = &value
	}
	f.resetPending = false
	return nil
}

func (f *Form) Clear(name string) error {
	idx := types.FeatureIndex(name)
	if idx < 0 {
		return fmt.Errorf("unknown field '%s'", name)
	}
	f.values[idx] = nil
	f.resetPending = false
	return nil
}

func (f *Form) Values() types.PartialVector {
	return f.values
}

// Result is what the form displays after a submit.
type Result struct {
	Message    string
	Prediction *types.PredictionResult
}

func (r Result) Lines() []string {
	if r.Prediction == nil {
		return []string{r.Message}
	}
	return []string{
		fmt.Sprintf("Prediction: **%s**", r.Prediction.Label),
		fmt.Sprintf("Prediction Confidence: %s", r.Prediction.ConfidencePercent()),
	}
}

func (r Result) String() string {
	return strings.Join(r.Lines(), "\n")
}

// Submit calls the predictor exactly once when every field is present. An incomplete
// form yields the fill-in message without calling it.
func (f *Form) Submit(ctx context.Context, predictor Predictor) (Result, error) {
	raw, err := f.values.Complete()
	if err != nil {
		if errors.Is(err, types.ErrIncompleteInput) {
			return Result{Message: types.IncompleteInputMessage}, nil
		}
		if errors.Is(err, types.ErrInvalidInput) {
			return Result{Message: types.InvalidInputMessage}, nil
		}
		return Result{}, err
	}

	res, err := predictor.Predict(ctx, raw)
	if err != nil {
		return Result{}, err
	}

	f.resetPending = false
	return Result{Prediction: &res}, nil
}

func (f *Form) String() string {
	var b strings.Builder
	for i, spec := range types.FeatureSpecs {
		value := "<empty>"
		if v := f.values[i]; v != nil {
			value = fmt.Sprintf("%g", *v)
		}
		fmt.Fprintf(&b, "%-15s %-60s %s\n", spec.Name, spec.Label, value)
	}
	return b.String()
}
