// Package reduce applies a pre-fitted linear projection that compresses
// embeddings to the feature width the classifier was trained on.
package reduce

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/disputekit/disputekit/internal/common"
)

// Transform is a fitted principal-component projection: subtract the fitted
// mean, then project onto the component basis. The transform is immutable
// for the lifetime of the process and is never refit online.
type Transform struct {
	mean       []float64
	components [][]float64
}

// artifact is the on-disk JSON shape of the fitted transform.
type artifact struct {
	Mean       []float64   `json:"mean"`
	Components [][]float64 `json:"components"`
}

// New creates a transform from a fitted mean and component matrix. Each
// component row must match the mean's width.
func New(mean []float64, components [][]float64) (*Transform, error) {
	if len(mean) == 0 || len(components) == 0 {
		return nil, fmt.Errorf("%w: pca transform is empty", common.ErrArtifactNotLoaded)
	}
	for i, row := range components {
		if len(row) != len(mean) {
			return nil, fmt.Errorf("%w: component %d has %d columns, expected %d",
				common.ErrDimensionMismatch, i, len(row), len(mean))
		}
	}
	return &Transform{mean: mean, components: components}, nil
}

// Load reads a PCA artifact from disk.
func Load(path string) (*Transform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: pca artifact: %v", common.ErrArtifactNotLoaded, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: pca artifact %s: %v", common.ErrArtifactNotLoaded, path, err)
	}

	return New(a.Mean, a.Components)
}

// InputDimensions returns the embedding width the transform expects.
func (t *Transform) InputDimensions() int {
	if t == nil {
		return 0
	}
	return len(t.mean)
}

// OutputDimensions returns the reduced feature width.
func (t *Transform) OutputDimensions() int {
	if t == nil {
		return 0
	}
	return len(t.components)
}

// Reduce projects an embedding onto the fitted component basis.
func (t *Transform) Reduce(vec []float64) ([]float64, error) {
	if t == nil || len(t.components) == 0 {
		return nil, fmt.Errorf("%w: pca transform", common.ErrArtifactNotLoaded)
	}
	if len(vec) != len(t.mean) {
		return nil, fmt.Errorf("%w: got %d-dim embedding, transform expects %d",
			common.ErrDimensionMismatch, len(vec), len(t.mean))
	}

	centered := make([]float64, len(vec))
	for i, v := range vec {
		centered[i] = v - t.mean[i]
	}

	out := make([]float64, len(t.components))
	for i, row := range t.components {
		var dot float64
		for j, w := range row {
			dot += w * centered[j]
		}
		out[i] = dot
	}

	return out, nil
}
