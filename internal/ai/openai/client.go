package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/apiclient"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4"

	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OpenRouterModel   = "google/gemma-3-12b-it:free"
)

// Options configure a chat-completions backend. OpenAI and OpenRouter share
// the same wire contract and differ only in base url, model and headers.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// InlineSystemPrompt folds the system prompt into the first user message
	// for models that reject a system role.
	InlineSystemPrompt bool
	Headers            map[string]string
}

type Backend struct {
	api    *apiclient.Client
	model  string
	inline bool
}

type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []ai.Message `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func New(opts Options, logger *zap.Logger) (*Backend, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("api key is required")
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
	api.Headers = opts.Headers

	return &Backend{api: api, model: model, inline: opts.InlineSystemPrompt}, nil
}

func (b *Backend) Model() string { return b.model }

func (b *Backend) Complete(ctx context.Context, req ai.Request) (*ai.Completion, error) {
	payload := chatRequest{
		Model:       b.model,
		Messages:    b.messages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	var resp chatResponse
	if err := b.api.PostJSON(ctx, "chat/completions", payload, &resp); err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return nil, fmt.Errorf("chat completion: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = b.model
	}

	return &ai.Completion{
		Content: resp.Choices[0].Message.Content,
		Usage: ai.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Model: model,
	}, nil
}

func (b *Backend) messages(req ai.Request) []ai.Message {
	system, rest := ai.SplitSystem(req)
	if b.inline {
		return ai.InlineSystem(system, rest)
	}
	if system == "" {
		return rest
	}
	return append([]ai.Message{{Role: ai.RoleSystem, Content: system}}, rest...)
}
