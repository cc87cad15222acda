package reduce

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disputekit/disputekit/internal/common"
)

func TestNewValidation(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, common.ErrArtifactNotLoaded)

	_, err = New([]float64{0, 0}, [][]float64{{1, 0, 0}})
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestReduceSubtractsMeanAndProjects(t *testing.T) {
	transform, err := New(
		[]float64{1, 1, 1, 1},
		[][]float64{
			{1, 0, 0, 0},
			{0, 0, 1, 0},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, 4, transform.InputDimensions())
	assert.Equal(t, 2, transform.OutputDimensions())

	out, err := transform.Reduce([]float64{3, 5, 7, 9})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 2.0, out[0], 1e-9)
	assert.InDelta(t, 6.0, out[1], 1e-9)
}

func TestReduceDimensionMismatch(t *testing.T) {
	transform, err := New([]float64{0, 0, 0}, [][]float64{{1, 0, 0}})
	require.NoError(t, err)

	_, err = transform.Reduce([]float64{1, 2})
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestReduceNilTransform(t *testing.T) {
	var transform *Transform
	_, err := transform.Reduce([]float64{1})
	assert.ErrorIs(t, err, common.ErrArtifactNotLoaded)
	assert.Equal(t, 0, transform.InputDimensions())
	assert.Equal(t, 0, transform.OutputDimensions())
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pca.json")
	artifact := `{"mean":[1,2],"components":[[1,0],[0,1]]}`
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o600))

	transform, err := Load(path)
	require.NoError(t, err)

	out, err := transform.Reduce([]float64{2, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, out)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, common.ErrArtifactNotLoaded)
}
