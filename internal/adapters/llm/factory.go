package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/haven-intake/internal/config"
	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

// NewFromConfig builds the Completer selected by cfg.LLMProvider, wrapped in
// a rate limiter when cfg.RateLimit > 0. Provider "none" returns a nil
// Completer: the engine then serves every call from its fallbacks.
func NewFromConfig(ctx context.Context, cfg *config.Config) (domain.Completer, error) {
	log := observability.LoggerFromContext(ctx).With("provider", cfg.LLMProvider)

	var (
		completer domain.Completer
		err       error
	)

	switch cfg.LLMProvider {
	case config.ProviderNone:
		log.Info("generative backend disabled")
		return nil, nil
	case config.ProviderMock:
		completer = NewMockLLM()
	case config.ProviderGemini:
		completer, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			ModelName: cfg.ModelName,
		})
	case config.ProviderVertex:
		completer, err = NewGeminiClient(ctx, GeminiConfig{
			Project:   cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		})
	case config.ProviderOpenAI:
		completer, err = NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		log.Info("backend rate limit enabled", "per_second", cfg.RateLimit, "burst", cfg.RateBurst)
		completer = NewRateLimited(completer, cfg.RateLimit, cfg.RateBurst)
	}

	log.Info("generative backend ready")
	return completer, nil
}
