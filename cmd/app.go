package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/config"
	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/llm"
	"github.com/arcanaland/tarotreading/internal/llm/gemini"
	"github.com/arcanaland/tarotreading/internal/llm/openai"
	"github.com/arcanaland/tarotreading/internal/logger"
)

// loadConfig loads the config file named by --config and applies --log-level
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.Output,
	})
}

// loadCatalogs loads the card and concern catalogs named in the config,
// falling back to the built-in ones
func loadCatalogs(cfg *config.Config) (*catalog.Cards, *catalog.Concerns, error) {
	cardsPath, err := config.ResolveCatalogPath(cfg.Catalog.Cards)
	if err != nil {
		return nil, nil, err
	}
	concernsPath, err := config.ResolveCatalogPath(cfg.Catalog.Concerns)
	if err != nil {
		return nil, nil, err
	}

	cards, err := catalog.LoadCards(cardsPath)
	if err != nil {
		return nil, nil, err
	}
	concerns, err := catalog.LoadConcerns(concernsPath)
	if err != nil {
		return nil, nil, err
	}
	return cards, concerns, nil
}

// newProvider builds the configured text generator
func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		g, err := openai.NewGenerator(cfg.APIKey(), cfg.LLM.Model, cfg.LLM.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w (set OPENAI_API_KEY)", err)
		}
		return g, nil
	case config.ProviderGemini:
		g, err := gemini.NewGenerator(ctx, cfg.APIKey(), cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("%w (set GEMINI_API_KEY)", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// newRequester builds the interpretation requester from the llm settings
func newRequester(cfg *config.Config, generator llm.Generator, log *zap.Logger, metrics *interpret.Metrics) *interpret.Requester {
	return interpret.NewRequester(generator,
		interpret.WithParams(llm.Params{
			Temperature:     cfg.LLM.Temperature,
			TopK:            cfg.LLM.TopK,
			TopP:            cfg.LLM.TopP,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		}),
		interpret.WithRetry(interpret.RetryPolicy{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BaseDelay:   cfg.LLM.RetryBaseDelay.Duration,
		}),
		interpret.WithLogger(log),
		interpret.WithMetrics(metrics),
	)
}
