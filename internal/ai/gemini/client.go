package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/spigell/job-portal/internal/ai"
)

const (
	DefaultModel = "gemini-2.5-flash"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Backend wraps the Google GenAI client.
type Backend struct {
	models    contentGenerator
	modelName string
	inline    bool
}

// New creates a Backend configured for the Gemini API. With inline set the
// system prompt goes into the first user turn instead of SystemInstruction.
func New(ctx context.Context, apiKey, model string, timeout time.Duration, inline bool) (*Backend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	return &Backend{models: client.Models, modelName: model, inline: inline}, nil
}

func (b *Backend) Model() string {
	if b == nil {
		return ""
	}
	return b.modelName
}

// Complete sends the conversation to Gemini and returns the joined text parts.
func (b *Backend) Complete(ctx context.Context, req ai.Request) (*ai.Completion, error) {
	if b == nil || b.models == nil {
		return nil, errors.New("gemini backend is not initialized")
	}

	system, messages := ai.SplitSystem(req)
	if b.inline {
		messages = ai.InlineSystem(system, messages)
		system = ""
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	resp, err := b.models.GenerateContent(ctx, b.modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	completion := &ai.Completion{Content: output, Model: b.modelName}
	if resp.ModelVersion != "" {
		completion.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		completion.Usage = ai.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return completion, nil
}
