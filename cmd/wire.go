package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/ai/provider"
	"github.com/spigell/job-portal/internal/assistant"
	"github.com/spigell/job-portal/internal/email"
	"github.com/spigell/job-portal/internal/notify"
	"github.com/spigell/job-portal/internal/secrets"
	"github.com/spigell/job-portal/internal/storage"
	"github.com/spigell/job-portal/internal/usage"
)

// application is everything a command needs, built once per process.
type application struct {
	db         *gorm.DB
	ai         *ai.Client
	usage      *usage.Store
	recorder   *usage.Recorder
	assistant  *assistant.Service
	dispatcher *email.Dispatcher
	inbox      *notify.Store
	notifier   *notify.Notifier
}

func buildApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	db, err := storage.Open(storage.Config{
		DSN:           config.Database.DSN,
		Debug:         config.Database.Debug,
		SlowThreshold: config.Database.SlowThreshold,
	}, logger)
	if err != nil {
		return nil, err
	}

	a := &application{db: db}

	a.usage = usage.NewStore(db)
	a.inbox = notify.NewStore(db)
	if err := a.usage.Migrate(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.inbox.Migrate(ctx); err != nil {
		a.close()
		return nil, err
	}

	aiCfg, headers, err := resolveAIConfig(config.AI)
	if err != nil {
		a.close()
		return nil, err
	}

	a.ai, err = provider.New(ctx, aiCfg, headers, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.recorder = usage.NewRecorder(a.usage, logger)
	a.assistant = assistant.New(a.ai, string(a.ai.Kind()), a.recorder, logger)

	emailKey, err := secrets.LoadOptional(secrets.Source{
		Name:  "resend api key",
		Value: config.Email.APIKey,
		File:  config.Email.APIKeyFile,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	if emailKey == "" {
		logger.Warn("email api key is not configured, notifications will stay pending",
			zap.String("hint", "set RESEND_API_KEY or email.api-key-file"),
		)
	}

	a.dispatcher = email.NewDispatcher(email.Config{
		APIKey:        emailKey,
		BaseURL:       config.Email.BaseURL,
		FromEmail:     config.Email.FromEmail,
		FromName:      config.Email.FromName,
		TestRecipient: config.Email.TestRecipient,
		Timeout:       config.Email.Timeout,
	}, logger)

	a.notifier = notify.New(a.inbox, a.dispatcher, notify.Options{
		FrontendURL: config.FrontendURL,
		SweepPause:  config.Email.SweepPause,
		ClaimTTL:    claimTTL(config.Email.Timeout),
	}, logger)

	return a, nil
}

func (a *application) close() {
	if a == nil || a.db == nil {
		return
	}
	_ = storage.Close(a.db)
}

// claimTTL covers one email send with room to spare.
func claimTTL(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = email.DefaultTimeout
	}
	return timeout + 30*time.Second
}

// resolveAIConfig picks the vendor section matching the provider and loads
// its key.
func resolveAIConfig(cfg *AIConfig) (ai.Config, provider.OpenRouterHeaders, error) {
	var headers provider.OpenRouterHeaders

	kind, err := ai.ParseKind(cfg.Provider)
	if err != nil {
		return ai.Config{}, headers, &ai.ConfigurationError{Kind: ai.Kind(cfg.Provider), Reason: "unknown provider", Err: err}
	}

	out := ai.Config{
		Kind:               kind,
		MaxTokens:          cfg.MaxTokens,
		Temperature:        cfg.Temperature,
		Timeout:            cfg.Timeout,
		InlineSystemPrompt: cfg.InlineSystemPrompt,
		RequireKey:         cfg.RequireKey,
		RateLimits: ai.RateLimits{
			PerMinute: cfg.RequestsPerMinute,
			PerDay:    cfg.RequestsPerDay,
		},
	}

	vendor := vendorSection(cfg, kind)
	if vendor == nil {
		return out, headers, nil
	}

	out.APIKey, err = secrets.LoadOptional(secrets.Source{
		Name:  fmt.Sprintf("%s api key", kind),
		Value: vendor.APIKey,
		File:  vendor.APIKeyFile,
	})
	if err != nil {
		return ai.Config{}, headers, &ai.ConfigurationError{Kind: kind, Reason: "api key", Err: err}
	}

	out.Model = strings.TrimSpace(vendor.Model)
	out.BaseURL = strings.TrimSpace(vendor.BaseURL)
	headers = provider.OpenRouterHeaders{Referer: vendor.SiteURL, Title: vendor.SiteName}

	return out, headers, nil
}

func vendorSection(cfg *AIConfig, kind ai.Kind) *VendorConfig {
	switch kind {
	case ai.KindClaude:
		return cfg.Claude
	case ai.KindOpenAI:
		return cfg.OpenAI
	case ai.KindOpenRouter:
		return cfg.OpenRouter
	case ai.KindGemini:
		return cfg.Gemini
	}
	return nil
}
