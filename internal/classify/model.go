// Package classify predicts a dispute category from reduced feature vectors
// using a pre-trained multinomial logistic regression model.
package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/model"
)

// Model holds the trained per-class coefficients and intercepts. Class rows
// are stored in the fixed ordinal order returned by model.Categories(); a
// numerically tied top probability resolves to the lower ordinal index, so
// inference is fully deterministic.
type Model struct {
	coefficients [][]float64
	intercepts   []float64
}

// artifact is the on-disk JSON shape of the trained classifier.
type artifact struct {
	Classes      []string    `json:"classes"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

// New creates a classifier from trained weights. coefficients must contain
// one equal-width row per category in ordinal order.
func New(coefficients [][]float64, intercepts []float64) (*Model, error) {
	classes := model.Categories()
	if len(coefficients) != len(classes) {
		return nil, fmt.Errorf("%w: classifier has %d coefficient rows, expected %d",
			common.ErrDimensionMismatch, len(coefficients), len(classes))
	}
	if len(intercepts) != len(classes) {
		return nil, fmt.Errorf("%w: classifier has %d intercepts, expected %d",
			common.ErrDimensionMismatch, len(intercepts), len(classes))
	}
	width := len(coefficients[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: classifier coefficient rows are empty", common.ErrArtifactNotLoaded)
	}
	for i, row := range coefficients {
		if len(row) != width {
			return nil, fmt.Errorf("%w: coefficient row %d has %d columns, expected %d",
				common.ErrDimensionMismatch, i, len(row), width)
		}
	}
	return &Model{coefficients: coefficients, intercepts: intercepts}, nil
}

// Load reads a classifier artifact from disk. The artifact's class list must
// match the fixed category ordering exactly; anything else is a version
// mismatch between the artifact and this binary.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier artifact: %v", common.ErrArtifactNotLoaded, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: classifier artifact %s: %v", common.ErrArtifactNotLoaded, path, err)
	}

	classes := model.Categories()
	if len(a.Classes) != len(classes) {
		return nil, fmt.Errorf("%w: artifact lists %d classes, expected %d",
			common.ErrDimensionMismatch, len(a.Classes), len(classes))
	}
	for i, name := range a.Classes {
		if model.Category(name) != classes[i] {
			return nil, fmt.Errorf("%w: artifact class %d is %q, expected %q",
				common.ErrDimensionMismatch, i, name, classes[i])
		}
	}

	return New(a.Coefficients, a.Intercepts)
}

// InputDimensions returns the feature width the model expects.
func (m *Model) InputDimensions() int {
	if m == nil || len(m.coefficients) == 0 {
		return 0
	}
	return len(m.coefficients[0])
}

// Predict returns the highest-probability category and its probability mass.
func (m *Model) Predict(features []float64) (model.Category, float64, error) {
	probs, err := m.Probabilities(features)
	if err != nil {
		return "", 0, err
	}

	classes := model.Categories()
	best := 0
	for i := 1; i < len(probs); i++ {
		// Strict greater-than keeps the lower ordinal index on ties.
		if probs[i] > probs[best] {
			best = i
		}
	}

	return classes[best], probs[best], nil
}

// Probabilities returns the softmax probability for every category, in
// ordinal order.
func (m *Model) Probabilities(features []float64) ([]float64, error) {
	if m == nil || len(m.coefficients) == 0 {
		return nil, fmt.Errorf("%w: classifier", common.ErrArtifactNotLoaded)
	}
	if len(features) != m.InputDimensions() {
		return nil, fmt.Errorf("%w: got %d features, classifier expects %d",
			common.ErrDimensionMismatch, len(features), m.InputDimensions())
	}

	logits := make([]float64, len(m.coefficients))
	for i, row := range m.coefficients {
		sum := m.intercepts[i]
		for j, w := range row {
			sum += w * features[j]
		}
		logits[i] = sum
	}

	// Softmax with max subtraction for numeric stability.
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	var total float64
	probs := make([]float64, len(logits))
	for i, l := range logits {
		probs[i] = math.Exp(l - maxLogit)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}

	return probs, nil
}
