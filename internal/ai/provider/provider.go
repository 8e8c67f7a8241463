package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/ai/anthropic"
	"github.com/spigell/job-portal/internal/ai/gemini"
	"github.com/spigell/job-portal/internal/ai/mock"
	"github.com/spigell/job-portal/internal/ai/openai"
)

// OpenRouterHeaders are sent with every OpenRouter request when set.
type OpenRouterHeaders struct {
	Referer string
	Title   string
}

// New selects the backend for cfg once. A missing key falls back to the
// offline responder unless cfg.RequireKey is set.
func New(ctx context.Context, cfg ai.Config, headers OpenRouterHeaders, logger *zap.Logger) (*ai.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()

	if _, err := ai.ParseKind(string(cfg.Kind)); err != nil {
		return nil, &ai.ConfigurationError{Kind: cfg.Kind, Reason: "unknown provider", Err: err}
	}

	if cfg.Kind != ai.KindMock && cfg.APIKey == "" && cfg.RequireKey {
		return nil, &ai.ConfigurationError{Kind: cfg.Kind, Reason: "api key is not configured"}
	}

	kind := cfg.Kind
	if cfg.UsesMock() {
		if kind != ai.KindMock {
			logger.Warn("no api key configured, using the offline mock provider",
				zap.String("configured_provider", string(kind)),
			)
		}
		kind = ai.KindMock
	}

	backend, err := newBackend(ctx, kind, cfg, headers, logger)
	if err != nil {
		return nil, &ai.ConfigurationError{Kind: kind, Reason: "backend construction failed", Err: err}
	}

	logger.Info("ai provider selected",
		zap.String("ai_provider", string(kind)),
		zap.String("ai_model", backend.Model()),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("max_tokens", cfg.MaxTokens),
		zap.Int("declared_requests_per_minute", cfg.RateLimits.PerMinute),
		zap.Int("declared_requests_per_day", cfg.RateLimits.PerDay),
		zap.Bool("rate_limits_enforced", false),
	)

	return ai.NewClient(kind, backend, cfg, logger), nil
}

func newBackend(ctx context.Context, kind ai.Kind, cfg ai.Config, headers OpenRouterHeaders, logger *zap.Logger) (ai.Backend, error) {
	switch kind {
	case ai.KindClaude:
		return anthropic.New(anthropic.Options{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,

			InlineSystemPrompt: cfg.InlineSystem(false),
		}, logger)
	case ai.KindOpenAI:
		return openai.New(openai.Options{
			APIKey:             cfg.APIKey,
			Model:              cfg.Model,
			BaseURL:            cfg.BaseURL,
			Timeout:            cfg.Timeout,
			InlineSystemPrompt: cfg.InlineSystem(false),
		}, logger)
	case ai.KindOpenRouter:
		model := cfg.Model
		if model == "" {
			model = openai.OpenRouterModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.OpenRouterBaseURL
		}
		return openai.New(openai.Options{
			APIKey:             cfg.APIKey,
			Model:              model,
			BaseURL:            baseURL,
			Timeout:            cfg.Timeout,
			InlineSystemPrompt: cfg.InlineSystem(true),
			Headers:            headers.toMap(),
		}, logger)
	case ai.KindGemini:
		return gemini.New(ctx, cfg.APIKey, cfg.Model, cfg.Timeout, cfg.InlineSystem(false))
	default:
		return mock.New(), nil
	}
}

func (h OpenRouterHeaders) toMap() map[string]string {
	headers := make(map[string]string, 2)
	if h.Referer != "" {
		headers["HTTP-Referer"] = h.Referer
	}
	if h.Title != "" {
		headers["X-Title"] = h.Title
	}
	return headers
}
