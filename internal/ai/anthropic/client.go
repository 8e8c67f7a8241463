package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/apiclient"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/v1"
	DefaultModel   = "claude-3-5-sonnet-20241022"
	apiVersion     = "2023-06-01"

	defaultSystemPrompt = "You are a helpful AI assistant."
)

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// InlineSystemPrompt sends the system prompt inside the first user
	// message instead of the system field.
	InlineSystemPrompt bool
}

// Backend talks to the Anthropic Messages API.
type Backend struct {
	api    *apiclient.Client
	model  string
	inline bool
}

type messagesRequest struct {
	Model       string       `json:"model"`
	System      string       `json:"system,omitempty"`
	Messages    []ai.Message `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func New(opts Options, logger *zap.Logger) (*Backend, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("anthropic api key is required")
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	api := apiclient.New(baseURL, key, opts.Timeout, logger)
	api.Auth = func(req *http.Request, token string) {
		req.Header.Set("x-api-key", token)
		req.Header.Set("anthropic-version", apiVersion)
	}

	return &Backend{api: api, model: model, inline: opts.InlineSystemPrompt}, nil
}

func (b *Backend) Model() string { return b.model }

func (b *Backend) Complete(ctx context.Context, req ai.Request) (*ai.Completion, error) {
	system, messages := ai.SplitSystem(req)
	switch {
	case b.inline:
		messages = ai.InlineSystem(system, messages)
		system = ""
	case system == "":
		system = defaultSystemPrompt
	}

	payload := messagesRequest{
		Model:       b.model,
		System:      system,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	var resp messagesResponse
	if err := b.api.PostJSON(ctx, "messages", payload, &resp); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.Text)
	}

	if len(resp.Content) == 0 {
		return nil, errors.New("anthropic api returned empty content")
	}

	model := resp.Model
	if model == "" {
		model = b.model
	}

	return &ai.Completion{
		Content: builder.String(),
		Usage: ai.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		Model: model,
	}, nil
}
