// Package pipeline composes embedding, dimensionality reduction, categorical
// prediction, and explanation generation into one classify-dispute operation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/disputekit/disputekit/internal/classify"
	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/embed"
	"github.com/disputekit/disputekit/internal/explain"
	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/reduce"
)

// Pipeline holds the loaded model artifacts and the explanation generator.
// It is constructed once at startup and is safe for unlimited concurrent
// callers: the artifacts are never mutated after load, and each Classify
// call touches only its own data plus one outbound generative-service call.
type Pipeline struct {
	embedder   *embed.Embedder
	transform  *reduce.Transform
	classifier *classify.Model
	generator  *explain.Generator
	logger     *slog.Logger
	clock      func() time.Time
	newID      func() string
}

// Option customizes pipeline construction.
type Option func(*Pipeline)

// WithClock overrides the creation timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithIDGenerator overrides dispute ID assignment.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) { p.newID = gen }
}

// New creates a pipeline from already-loaded components. It verifies that
// the artifact dimensions line up end to end; a mismatch means the artifact
// versions are incompatible and is fatal.
func New(embedder *embed.Embedder, transform *reduce.Transform, classifier *classify.Model, generator *explain.Generator, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if embedder == nil || transform == nil || classifier == nil {
		return nil, fmt.Errorf("%w: pipeline requires embedder, transform, and classifier", common.ErrArtifactNotLoaded)
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: pipeline requires an explanation generator", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if embedder.Dimensions() != transform.InputDimensions() {
		return nil, fmt.Errorf("%w: embedder produces %d dims, pca expects %d",
			common.ErrDimensionMismatch, embedder.Dimensions(), transform.InputDimensions())
	}
	if transform.OutputDimensions() != classifier.InputDimensions() {
		return nil, fmt.Errorf("%w: pca produces %d features, classifier expects %d",
			common.ErrDimensionMismatch, transform.OutputDimensions(), classifier.InputDimensions())
	}

	p := &Pipeline{
		embedder:   embedder,
		transform:  transform,
		classifier: classifier,
		generator:  generator,
		logger:     logger,
		clock:      time.Now,
		newID:      func() string { return "DISP-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Classify runs the full pipeline on one dispute description and returns a
// complete record with status OPEN. The operation is atomic: if any stage
// fails, no partial record is returned.
func (p *Pipeline) Classify(ctx context.Context, description, customerID, txnID string) (*model.DisputeRecord, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is empty", common.ErrInvalidInput)
	}

	embedding, err := p.embedder.Embed(description)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	features, err := p.transform.Reduce(embedding)
	if err != nil {
		return nil, fmt.Errorf("dimensionality reduction failed: %w", err)
	}

	// Artifact version mismatch between reducer and classifier is checked
	// at construction, but features computed here are re-verified before
	// prediction so a broken artifact can never produce a silent result.
	if len(features) != p.classifier.InputDimensions() {
		return nil, fmt.Errorf("%w: reducer produced %d features, classifier expects %d",
			common.ErrDimensionMismatch, len(features), p.classifier.InputDimensions())
	}

	category, confidence, err := p.classifier.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	annotation, err := p.generator.Explain(ctx, description, category)
	if err != nil {
		return nil, fmt.Errorf("explanation failed: %w", err)
	}

	record := &model.DisputeRecord{
		DisputeID:         p.newID(),
		CustomerID:        customerID,
		TxnID:             txnID,
		Description:       description,
		PredictedCategory: category,
		Confidence:        confidence,
		Explanation:       annotation.Explanation,
		SuggestedAction:   annotation.SuggestedAction,
		Justification:     annotation.Justification,
		Status:            model.StatusOpen,
		CreatedAt:         p.clock().UTC(),
		Degraded:          annotation.Degraded,
	}

	p.logger.Info("dispute classified",
		"dispute_id", record.DisputeID,
		"category", record.PredictedCategory,
		"confidence", record.Confidence,
		"degraded", record.Degraded)

	return record, nil
}
