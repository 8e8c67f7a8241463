package ai

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindMock       Kind = "mock"
	KindClaude     Kind = "claude"
	KindOpenAI     Kind = "openai"
	KindOpenRouter Kind = "openrouter"
	KindGemini     Kind = "gemini"
)

const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
	MinTimeout         = time.Second
	MaxTimeout         = 120 * time.Second

	DefaultRequestsPerMinute = 60
	DefaultRequestsPerDay    = 1000
)

// ParseKind maps a configuration value to a Kind. An empty value means mock.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindMock, nil
	case KindMock, KindClaude, KindOpenAI, KindOpenRouter, KindGemini:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported ai provider %q", s)
	}
}

// RateLimits are declared in configuration and reported at startup. They are
// not enforced anywhere in the call path.
type RateLimits struct {
	PerMinute int
	PerDay    int
}

// Config is the process-wide provider configuration.
type Config struct {
	Kind      Kind
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration

	// Temperature nil means DefaultTemperature; zero is a valid setting.
	Temperature *float64

	// InlineSystemPrompt forces the system prompt into the first user
	// message. Nil keeps the backend default.
	InlineSystemPrompt *bool

	// RequireKey turns a missing key for a vendor kind into a
	// ConfigurationError instead of falling back to the mock.
	RequireKey bool

	RateLimits RateLimits
}

// WithDefaults fills zero values and clamps the timeout into its bounds.
func (c Config) WithDefaults() Config {
	if c.Kind == "" {
		c.Kind = KindMock
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == nil || *c.Temperature < 0 {
		t := DefaultTemperature
		c.Temperature = &t
	}
	switch {
	case c.Timeout <= 0:
		c.Timeout = DefaultTimeout
	case c.Timeout < MinTimeout:
		c.Timeout = MinTimeout
	case c.Timeout > MaxTimeout:
		c.Timeout = MaxTimeout
	}
	if c.RateLimits.PerMinute <= 0 {
		c.RateLimits.PerMinute = DefaultRequestsPerMinute
	}
	if c.RateLimits.PerDay <= 0 {
		c.RateLimits.PerDay = DefaultRequestsPerDay
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	return c
}

// UsesMock reports whether the configuration selects the offline responder.
func (c Config) UsesMock() bool {
	return c.Kind == KindMock || strings.TrimSpace(c.APIKey) == ""
}

// InlineSystem resolves the capability flag against a backend default.
func (c Config) InlineSystem(backendDefault bool) bool {
	if c.InlineSystemPrompt == nil {
		return backendDefault
	}
	return *c.InlineSystemPrompt
}
