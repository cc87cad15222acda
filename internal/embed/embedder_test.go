package embed

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disputekit/disputekit/internal/common"
)

func testVocab() map[string][]float64 {
	return map[string][]float64{
		"charged": {1, 0, 0, 0},
		"twice":   {1, 0, 0, 0},
		"failed":  {0, 1, 0, 0},
		"fraud":   {0, 0, 1, 0},
		"refund":  {0, 0, 0, 1},
	}
}

func TestNewRejectsBadDimensions(t *testing.T) {
	_, err := New(0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = New(3, map[string][]float64{"charged": {1, 0, 0, 0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestEmbedIsDeterministic(t *testing.T) {
	embedder, err := New(4, testVocab())
	require.NoError(t, err)

	first, err := embedder.Embed("I was charged twice for the same coffee order")
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := embedder.Embed("I was charged twice for the same coffee order")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbedIsUnitLength(t *testing.T) {
	embedder, err := New(4, testVocab())
	require.NoError(t, err)

	vec, err := embedder.Embed("charged twice by an unknown merchant")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
}

func TestEmbedEmptyText(t *testing.T) {
	embedder, err := New(4, testVocab())
	require.NoError(t, err)

	_, err = embedder.Embed("")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = embedder.Embed("   \t\n  ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	// Punctuation-only text tokenizes to nothing.
	_, err = embedder.Embed("!!! ... ???")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestEmbedOutOfVocabulary(t *testing.T) {
	embedder, err := New(4, testVocab())
	require.NoError(t, err)

	// No vocab hit at all still produces a stable non-zero vector.
	first, err := embedder.Embed("zzzz qqqq")
	require.NoError(t, err)
	second, err := embedder.Embed("zzzz qqqq")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var sum float64
	for _, v := range first {
		sum += v * v
	}
	assert.Greater(t, sum, 0.0)
}

func TestEmbedCaseInsensitive(t *testing.T) {
	embedder, err := New(4, testVocab())
	require.NoError(t, err)

	lower, err := embedder.Embed("charged twice")
	require.NoError(t, err)
	upper, err := embedder.Embed("CHARGED TWICE")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embedding.json")

	data, err := json.Marshal(map[string]any{
		"dimensions": 4,
		"vocab":      testVocab(),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	embedder, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, embedder.Dimensions())

	vec, err := embedder.Embed("refund")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vec[3], 1e-9)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, common.ErrArtifactNotLoaded)
}

func TestLoadDefaultDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embedding.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vocab":{}}`), 0o600))

	embedder, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, embedder.Dimensions())
}
