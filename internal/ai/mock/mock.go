package mock

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/spigell/job-portal/internal/ai"
)

const Model = "mock-ai-v1"

// tokensPerWord approximates provider token counts from whitespace words.
const tokensPerWord = 1.3

//go:embed responses
var responses embed.FS

var generalOpeners = []string{
	"I understand your question. Based on the information provided, I can help you with that.",
	"That's a great question! Let me provide some insights based on current best practices.",
	"I'd be happy to help you with that. Here's what I recommend based on industry standards.",
	"Based on my analysis, here are some suggestions that might help.",
}

const generalFooter = "This is a mock AI response for testing purposes. " +
	"The system is working correctly and will provide real AI responses when configured with an API key."

type rule struct {
	file  string
	match func(text string) bool
}

// rules are evaluated in order against the lowercased text.
var rules = []rule{
	{file: "resume_feedback.md", match: func(s string) bool {
		return containsAny(s, "resume", "cv") && containsAny(s, "feedback", "improve")
	}},
	{file: "resume_analysis.json", match: func(s string) bool {
		return containsAny(s, "resume", "cv") && containsAny(s, "analyze", "extract")
	}},
	{file: "job_match.json", match: func(s string) bool {
		return strings.Contains(s, "job") && containsAny(s, "match", "suggest")
	}},
	{file: "skill_recommendations.json", match: func(s string) bool {
		return strings.Contains(s, "skill") && containsAny(s, "recommend", "learn")
	}},
	{file: "skill_extraction.json", match: func(s string) bool {
		return strings.Contains(s, "skill")
	}},
	{file: "job_description.md", match: func(s string) bool {
		return containsAny(s, "job description", "job posting")
	}},
	{file: "interview_questions.json", match: func(s string) bool {
		return strings.Contains(s, "interview") && strings.Contains(s, "question")
	}},
	{file: "candidate_ranking.txt", match: func(s string) bool {
		return strings.Contains(s, "candidate") && strings.Contains(s, "rank")
	}},
	{file: "candidate_summary.md", match: func(s string) bool {
		return strings.Contains(s, "candidate") && containsAny(s, "summary", "summarize")
	}},
	{file: "analytics_summary.md", match: func(s string) bool {
		return containsAny(s, "analytics", "statistics")
	}},
	{file: "spam_detection.json", match: func(s string) bool {
		return strings.Contains(s, "spam")
	}},
	{file: "trend_analysis.md", match: func(s string) bool {
		return containsAny(s, "trend", "analysis")
	}},
}

// Backend is the deterministic offline responder. It never touches the
// network and always succeeds.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Model() string { return Model }

func (b *Backend) Complete(ctx context.Context, req ai.Request) (*ai.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := Respond(lastUser(req.Messages), req.SystemPrompt)
	if err != nil {
		return nil, err
	}

	inputWords := 0
	for _, msg := range req.Messages {
		inputWords += len(strings.Fields(msg.Content))
	}

	return &ai.Completion{
		Content: content,
		Usage: ai.Usage{
			InputTokens:  estimateTokens(inputWords),
			OutputTokens: estimateTokens(len(strings.Fields(content))),
		},
		Model: Model,
	}, nil
}

// Respond picks a canned answer for the user message. The system prompt is
// consulted only when the message alone matches nothing.
func Respond(message, systemPrompt string) (string, error) {
	lowered := strings.ToLower(message)
	for _, candidate := range []string{lowered, strings.ToLower(systemPrompt)} {
		if candidate == "" {
			continue
		}
		for _, r := range rules {
			if r.match(candidate) {
				data, err := responses.ReadFile("responses/" + r.file)
				if err != nil {
					return "", fmt.Errorf("read canned response %s: %w", r.file, err)
				}
				return strings.TrimSpace(string(data)), nil
			}
		}
	}

	opener := generalOpeners[len(lowered)%len(generalOpeners)]
	return opener + "\n\n" + generalFooter, nil
}

func estimateTokens(words int) int {
	return int(float64(words) * tokensPerWord)
}

func lastUser(messages []ai.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
