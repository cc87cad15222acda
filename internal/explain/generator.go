// Package explain produces the human-readable annotation for a classified
// dispute: an evidence-quoting explanation, a suggested next action, and a
// justification for that action. The action comes from a fixed per-category
// rule table; the explanation and justification are generated by an external
// language service.
package explain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/service"
)

// Explanation is the full annotation for one classified dispute.
type Explanation struct {
	Explanation     string
	SuggestedAction string
	Justification   string
	// Degraded is true when the generative service was unreachable after
	// retries and the text fields fell back to the category's template stub.
	Degraded bool
}

// Config holds configuration for the generator.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  int
	// FallbackEnabled degrades to template text instead of failing when the
	// generative service is unavailable.
	FallbackEnabled bool
}

// Generator wraps an LLM client with retry, rate limiting, and the
// per-category resolution rules.
type Generator struct {
	client      llm.Client
	logger      *slog.Logger
	rateLimiter *llm.RateLimiter
	retryOpts   service.RetryOptions
	fallback    bool
}

// NewGenerator creates an explanation generator.
func NewGenerator(client llm.Client, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Generator{
		client:      client,
		logger:      logger,
		rateLimiter: llm.NewRateLimiter(cfg.RateLimit),
		retryOpts:   retryOpts,
		fallback:    cfg.FallbackEnabled,
	}
}

// Explain generates the annotation for a dispute. The suggested action is
// always the category's fixed rule; the explanation and justification come
// from the language service. When the service fails after the retry budget
// and fallback is enabled, the result carries template text with Degraded
// set; otherwise the call fails with common.ErrExplanationUnavailable.
func (g *Generator) Explain(ctx context.Context, description string, category model.Category) (Explanation, error) {
	if description == "" {
		return Explanation{}, fmt.Errorf("%w: description is empty", common.ErrInvalidInput)
	}
	if !category.Valid() {
		return Explanation{}, fmt.Errorf("%w: category %q", common.ErrInvalidInput, category)
	}

	meta := category.Meta()
	action := meta.SuggestedAction

	explanation, expErr := g.generate(ctx, llm.Request{
		System:      "You write clear, evidence-based explanations.",
		Prompt:      explanationPrompt(description, category),
		Temperature: 0.0,
		MaxTokens:   70,
	})
	if expErr == nil {
		justification, jusErr := g.generate(ctx, llm.Request{
			System:      "You write clear, actionable justifications for support agents.",
			Prompt:      justificationPrompt(description, category, action),
			Temperature: 0.1,
			MaxTokens:   80,
		})
		if jusErr == nil {
			return Explanation{
				Explanation:     explanation,
				SuggestedAction: action,
				Justification:   justification,
			}, nil
		}
		expErr = jusErr
	}

	if !g.fallback {
		return Explanation{}, fmt.Errorf("%w: %v", common.ErrExplanationUnavailable, expErr)
	}

	g.logger.Warn("generative service unavailable, degrading to template annotation",
		"category", category,
		"error", expErr)

	return Explanation{
		Explanation:     fmt.Sprintf("Classified as %s based on semantic analysis.", category),
		SuggestedAction: action,
		Justification:   meta.FallbackJustification,
		Degraded:        true,
	}, nil
}

// generate issues one rate-limited, retried call to the language service.
func (g *Generator) generate(ctx context.Context, req llm.Request) (string, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		response, err := g.client.Generate(ctx, req)
		if err != nil {
			g.logger.Warn("generation attempt failed", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}
		if response == "" {
			return &common.RetryableError{Err: fmt.Errorf("empty response from language service"), Retryable: true}
		}
		text = response
		return nil
	}, g.retryOpts)

	if err != nil {
		return "", err
	}
	return text, nil
}

func explanationPrompt(description string, category model.Category) string {
	return fmt.Sprintf(`You are an AI assistant for a financial support agent. Your task is to explain why a customer's dispute was classified.
- Customer's Description: %q
- Predicted Category: %s
Explain in one clear sentence why this dispute falls into the '%s' category, quoting key evidence from the customer's description.`,
		description, category, category)
}

func justificationPrompt(description string, category model.Category, action string) string {
	return fmt.Sprintf(`You are an AI assistant helping a financial support agent. A customer dispute has been analyzed.
- Customer's Description: %q
- Classified as: %s
- Suggested next action: %s
Write a brief, one-sentence justification for the agent explaining why '%s' is the correct next step, connecting it to the customer's complaint.`,
		description, category, action, action)
}
