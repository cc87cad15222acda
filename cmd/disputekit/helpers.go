package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/disputekit/disputekit/internal/config"
	"github.com/disputekit/disputekit/internal/explain"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/pipeline"
	"github.com/disputekit/disputekit/internal/storage"
)

// llmConfig builds the LLM client configuration from viper, resolving the
// API key from config first and the provider's conventional environment
// variable second.
func llmConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "openai"
	}

	config := llm.Config{
		Provider:  provider,
		Model:     viper.GetString("llm.model"),
		BaseURL:   viper.GetString("llm.base_url"),
		Timeout:   viper.GetDuration("llm.timeout"),
		RateLimit: viper.GetInt("llm.rate_limit"),
	}

	switch provider {
	case "openai":
		apiKey := viper.GetString("llm.openai_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return llm.Config{}, fmt.Errorf("OpenAI API key not found in config or OPENAI_API_KEY environment variable")
		}
		config.APIKey = apiKey

	case "anthropic":
		apiKey := viper.GetString("llm.anthropic_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return llm.Config{}, fmt.Errorf("anthropic API key not found in config or ANTHROPIC_API_KEY environment variable")
		}
		config.APIKey = apiKey

	default:
		return llm.Config{}, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return config, nil
}

// explainConfig builds the explanation generator configuration from viper.
func explainConfig() explain.Config {
	cfg := explain.Config{
		MaxRetries:      viper.GetInt("explain.max_retries"),
		RetryDelay:      viper.GetDuration("explain.retry_delay"),
		RateLimit:       viper.GetInt("llm.rate_limit"),
		FallbackEnabled: viper.GetBool("explain.fallback"),
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	return cfg
}

// loadPipeline loads all model artifacts and the LLM client. Any missing
// artifact aborts startup.
func loadPipeline(logger *slog.Logger) (*pipeline.Pipeline, error) {
	artifactDir := config.ExpandPath(viper.GetString("artifacts.dir"))
	if artifactDir == "" {
		artifactDir = "artifacts"
	}

	llmCfg, err := llmConfig()
	if err != nil {
		return nil, err
	}

	p, err := pipeline.Load(artifactDir, llmCfg, explainConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline artifacts from %s: %w", artifactDir, err)
	}
	return p, nil
}

// openStorage opens the SQLite database configured under database.path.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = "disputekit.db"
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return store, nil
}
