package types

import (
	"errors"
	"fmt"
	"strings"
)

type Label int

const (
	FalsePositive Label = 0
	Candidate     Label = 1
	Confirmed     Label = 2
)

const NumClasses = 3

// ClassNames is indexed by Label. The mapping is fixed by how the classifier was fitted.
var ClassNames = [NumClasses]string{"False Positive", "Candidate", "Confirmed"}

func (l Label) Valid() bool {
	return l >= FalsePositive && l <= Confirmed
}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return ClassNames[l]
}

// Distribution is the probability mass assigned to each Label.
type Distribution [NumClasses]float64

func (d Distribution) Max() float64 {
	best := d[0]
	for _, p := range d[1:] {
		if p > best {
			best = p
		}
	}
	return best
}

// Argmax returns the most probable label, preferring the lowest index on ties.
func (d Distribution) Argmax() Label {
	best := 0
	for i := 1; i < NumClasses; i++ {
		if d[i] > d[best] {
			best = i
		}
	}
	return Label(best)
}

func (d Distribution) Sum() float64 {
	total := 0.0
	for _, p := range d {
		total += p
	}
	return total
}

type PredictionResult struct {
	Label         Label
	Confidence    float64
	Probabilities Distribution
}

// ConfidencePercent renders the confidence the way it is shown to users, e.g. "87.31%".
func (r PredictionResult) ConfidencePercent() string {
	return fmt.Sprintf("%.2f%%", r.Confidence*100)
}

// ErrIncompleteInput is matched by *IncompleteInputError.
var ErrIncompleteInput = errors.New("incomplete input")

const IncompleteInputMessage = "Please enter all the required fields."

type IncompleteInputError struct {
	Missing []string
}

func (e *IncompleteInputError) Error() string {
	return fmt.Sprintf("%s missing: %s", IncompleteInputMessage, strings.Join(e.Missing, ", "))
}

func (e *IncompleteInputError) Is(target error) bool {
	return target == ErrIncompleteInput
}

// ErrInvalidInput is matched by *InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

const InvalidInputMessage = "Please enter finite numbers for all fields."

type InvalidInputError struct {
	Invalid []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s invalid: %s", InvalidInputMessage, strings.Join(e.Invalid, ", "))
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
