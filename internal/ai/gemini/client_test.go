package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/job-portal/internal/ai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     30,
			CandidatesTokenCount: 7,
		},
	}
}

func TestCompleteMapsRolesAndSystemInstruction(t *testing.T) {
	models := &fakeModels{resp: textResponse(" first ", "", "second")}
	backend := &Backend{models: models, modelName: "gemini-pro"}

	temp := 0.5
	completion, err := backend.Complete(context.Background(), ai.Request{
		SystemPrompt: "You are a career assistant.",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleAssistant, Content: "hello"},
			{Role: ai.RoleUser, Content: "analyze my resume"},
		},
		MaxTokens:   2048,
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if models.model != "gemini-pro" {
		t.Fatalf("unexpected model %q", models.model)
	}
	if len(models.contents) != 3 || models.contents[1].Role != genai.RoleModel {
		t.Fatalf("expected assistant mapped to model role, got %+v", models.contents)
	}
	if models.config.SystemInstruction == nil || models.config.SystemInstruction.Parts[0].Text != "You are a career assistant." {
		t.Fatalf("expected system instruction to be set")
	}
	if models.config.MaxOutputTokens != 2048 {
		t.Fatalf("unexpected max output tokens %d", models.config.MaxOutputTokens)
	}
	if models.config.Temperature == nil || *models.config.Temperature != 0.5 {
		t.Fatalf("unexpected temperature %v", models.config.Temperature)
	}
	if completion.Content != "first\nsecond" {
		t.Fatalf("unexpected content %q", completion.Content)
	}
	if completion.Usage.InputTokens != 30 || completion.Usage.OutputTokens != 7 {
		t.Fatalf("unexpected usage %+v", completion.Usage)
	}
}

func TestCompleteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		models   *fakeModels
		contains string
	}{
		{name: "api error", models: &fakeModels{err: errors.New("quota")}, contains: "generate content: quota"},
		{name: "empty response", models: &fakeModels{resp: textResponse("  ")}, contains: "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			backend := &Backend{models: tt.models, modelName: DefaultModel}
			_, err := backend.Complete(context.Background(), ai.UserRequest("", "hi"))
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Fatalf("expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(context.Background(), " ", "", 0, false); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestCompleteInlinesSystemPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	backend := &Backend{models: models, modelName: DefaultModel, inline: true}

	if _, err := backend.Complete(context.Background(), ai.UserRequest("You are a career assistant.", "hi")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if models.config.SystemInstruction != nil {
		t.Fatalf("system instruction must not be set when inlined")
	}
	if len(models.contents) != 1 || models.contents[0].Parts[0].Text != "You are a career assistant.\n\nhi" {
		t.Fatalf("expected the system prompt in the first user turn, got %+v", models.contents)
	}
}
