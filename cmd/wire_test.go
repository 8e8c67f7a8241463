package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/scheduler"
	"github.com/spigell/job-portal/internal/server"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		AI:          &AIConfig{},
		Email:       &EmailConfig{},
		Database:    &DatabaseConfig{DSN: filepath.Join(t.TempDir(), "portal.db")},
		Server:      &server.Config{},
		Sweep:       &scheduler.Config{},
		FrontendURL: "http://localhost:3000",
	}
}

func TestResolveAIConfigPicksVendorSection(t *testing.T) {
	t.Parallel()

	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("sk-or-test\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	cfg, headers, err := resolveAIConfig(&AIConfig{
		Provider:          " OpenRouter ",
		RequestsPerMinute: 10,
		Claude:            &VendorConfig{APIKey: "claude-key", Model: "claude-x"},
		OpenRouter: &VendorConfig{
			APIKeyFile: keyFile,
			Model:      "meta-llama/llama-3.1-8b-instruct:free",
			SiteURL:    "https://portal.example",
			SiteName:   "Portal",
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Kind != ai.KindOpenRouter {
		t.Fatalf("expected openrouter, got %q", cfg.Kind)
	}
	if cfg.APIKey != "sk-or-test" {
		t.Fatalf("expected key from file, got %q", cfg.APIKey)
	}
	if cfg.Model != "meta-llama/llama-3.1-8b-instruct:free" {
		t.Fatalf("unexpected model %q", cfg.Model)
	}
	if cfg.RateLimits.PerMinute != 10 {
		t.Fatalf("rate limits not carried: %+v", cfg.RateLimits)
	}
	if headers.Referer != "https://portal.example" || headers.Title != "Portal" {
		t.Fatalf("unexpected headers: %+v", headers)
	}
}

func TestResolveAIConfigRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	_, _, err := resolveAIConfig(&AIConfig{Provider: "cohere"})
	var cfgErr *ai.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResolveAIConfigMissingKeyFile(t *testing.T) {
	t.Parallel()

	_, _, err := resolveAIConfig(&AIConfig{
		Provider: "claude",
		Claude:   &VendorConfig{APIKeyFile: filepath.Join(t.TempDir(), "absent")},
	})
	if err == nil {
		t.Fatalf("expected an error for an unreadable key file")
	}
}

func TestBuildApplicationFallsBackToMock(t *testing.T) {
	config := testConfig(t)
	config.AI.Provider = "claude"

	a, err := buildApplication(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(a.close)

	if !a.ai.IsMock() {
		t.Fatalf("expected the mock provider without a key, got %q", a.ai.Kind())
	}
	if a.dispatcher.Enabled() {
		t.Fatalf("dispatcher must be disabled without an email key")
	}

	count, err := a.inbox.UnreadCount(context.Background(), "1")
	if err != nil || count != 0 {
		t.Fatalf("expected a migrated empty inbox, got %d, %v", count, err)
	}
}

func TestBuildApplicationRequireKey(t *testing.T) {
	config := testConfig(t)
	config.AI.Provider = "gemini"
	config.AI.RequireKey = true

	_, err := buildApplication(context.Background(), config, zap.NewNop())
	var cfgErr *ai.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRedactedMasksKeys(t *testing.T) {
	t.Parallel()

	config := testConfig(t)
	config.AI.Claude = &VendorConfig{APIKey: "secret-claude"}
	config.Email.APIKey = "secret-resend"

	out := redacted(config)
	if out.AI.Claude.APIKey != "***" || out.Email.APIKey != "***" {
		t.Fatalf("keys not masked: %+v %+v", out.AI.Claude, out.Email)
	}
	if config.AI.Claude.APIKey != "secret-claude" || config.Email.APIKey != "secret-resend" {
		t.Fatalf("original config must not change")
	}
}

func TestPromptText(t *testing.T) {
	t.Parallel()

	if got, _ := promptText([]string{"hello"}, strings.NewReader("ignored")); got != "hello" {
		t.Fatalf("expected argument to win, got %q", got)
	}
	if got, _ := promptText(nil, strings.NewReader("  from stdin \n")); got != "from stdin" {
		t.Fatalf("expected stdin text, got %q", got)
	}
	if _, err := promptText(nil, strings.NewReader("   ")); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}
