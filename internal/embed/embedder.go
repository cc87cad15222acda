// Package embed maps dispute description text to fixed-length dense vectors.
//
// The embedder is a local model artifact: a token vocabulary with one row of
// weights per token. A description embeds as the mean of its token vectors,
// L2-normalized. Tokens outside the vocabulary fall back to deterministic
// hash-derived vectors, so any non-empty text yields a stable embedding.
// The loaded artifact is immutable and safe for concurrent readers.
package embed

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/disputekit/disputekit/internal/common"
)

// DefaultDimensions is the embedding width produced by the shipped model.
const DefaultDimensions = 384

// hashProbes is how many dimensions an out-of-vocabulary token touches.
const hashProbes = 4

// Embedder converts text into fixed-length numeric vectors.
type Embedder struct {
	vocab map[string][]float64
	dims  int
}

// artifact is the on-disk JSON shape of the embedding model.
type artifact struct {
	Vocab      map[string][]float64 `json:"vocab"`
	Dimensions int                  `json:"dimensions"`
}

// New creates an embedder from an in-memory vocabulary. Every vocabulary row
// must be exactly dims wide.
func New(dims int, vocab map[string][]float64) (*Embedder, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive, got %d", common.ErrInvalidConfig, dims)
	}
	for token, row := range vocab {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: vocab entry %q has %d weights, expected %d",
				common.ErrDimensionMismatch, token, len(row), dims)
		}
	}
	return &Embedder{dims: dims, vocab: vocab}, nil
}

// Load reads an embedding artifact from disk.
func Load(path string) (*Embedder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding artifact: %v", common.ErrArtifactNotLoaded, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: embedding artifact %s: %v", common.ErrArtifactNotLoaded, path, err)
	}

	if a.Dimensions == 0 {
		a.Dimensions = DefaultDimensions
	}

	return New(a.Dimensions, a.Vocab)
}

// Dimensions returns the width of vectors produced by Embed.
func (e *Embedder) Dimensions() int {
	if e == nil {
		return 0
	}
	return e.dims
}

// Embed converts a description into its embedding vector. Returns
// common.ErrInvalidInput for empty or whitespace-only text, and
// common.ErrArtifactNotLoaded if the embedder was never loaded.
func (e *Embedder) Embed(text string) ([]float64, error) {
	if e == nil || e.dims == 0 {
		return nil, fmt.Errorf("%w: embedder", common.ErrArtifactNotLoaded)
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: description is empty", common.ErrInvalidInput)
	}

	vec := make([]float64, e.dims)
	for _, token := range tokens {
		if row, ok := e.vocab[token]; ok {
			for i, w := range row {
				vec[i] += w
			}
			continue
		}
		e.addHashed(vec, token)
	}

	n := float64(len(tokens))
	for i := range vec {
		vec[i] /= n
	}
	normalize(vec)

	return vec, nil
}

// addHashed folds an out-of-vocabulary token into the vector at a fixed set
// of hash-derived positions. FNV keeps this stable across processes.
func (e *Embedder) addHashed(vec []float64, token string) {
	for probe := 0; probe < hashProbes; probe++ {
		h := fnv.New64a()
		fmt.Fprintf(h, "%s#%d", token, probe)
		sum := h.Sum64()

		idx := int(sum % uint64(e.dims))
		sign := 1.0
		if sum&(1<<63) != 0 {
			sign = -1.0
		}
		vec[idx] += sign
	}
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
