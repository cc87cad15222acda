package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/disputekit/disputekit/internal/classify"
	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/embed"
	"github.com/disputekit/disputekit/internal/explain"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/reduce"
)

// ManifestName is the file describing an artifact directory.
const ManifestName = "artifacts.yaml"

// Manifest lists the model artifacts that make up one trained pipeline
// version. All three artifacts must load, together, at startup.
type Manifest struct {
	Version    string       `yaml:"version"`
	Embedding  ArtifactSpec `yaml:"embedding"`
	PCA        ArtifactSpec `yaml:"pca"`
	Classifier ArtifactSpec `yaml:"classifier"`
}

// ArtifactSpec points at one artifact file, relative to the manifest.
type ArtifactSpec struct {
	Path string `yaml:"path"`
}

// Load reads the artifact manifest from dir and constructs a ready pipeline.
// Any missing or malformed artifact fails the whole load; a process must not
// start with a partially loaded pipeline.
func Load(dir string, llmCfg llm.Config, explainCfg explain.Config, logger *slog.Logger) (*Pipeline, error) {
	manifest, err := readManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}

	embedder, err := embed.Load(filepath.Join(dir, manifest.Embedding.Path))
	if err != nil {
		return nil, err
	}

	transform, err := reduce.Load(filepath.Join(dir, manifest.PCA.Path))
	if err != nil {
		return nil, err
	}

	classifier, err := classify.Load(filepath.Join(dir, manifest.Classifier.Path))
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	generator := explain.NewGenerator(client, explainCfg, logger)

	if logger != nil {
		logger.Info("model artifacts loaded",
			"dir", dir,
			"version", manifest.Version,
			"embedding_dims", embedder.Dimensions(),
			"reduced_dims", transform.OutputDimensions())
	}

	return New(embedder, transform, classifier, generator, logger)
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: artifact manifest: %v", common.ErrArtifactNotLoaded, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: artifact manifest %s: %v", common.ErrArtifactNotLoaded, path, err)
	}

	if m.Embedding.Path == "" || m.PCA.Path == "" || m.Classifier.Path == "" {
		return nil, fmt.Errorf("%w: artifact manifest %s must name embedding, pca, and classifier artifacts",
			common.ErrArtifactNotLoaded, path)
	}

	return &m, nil
}
