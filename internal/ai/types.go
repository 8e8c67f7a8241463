package ai

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation request. Zero MaxTokens and a nil
// Temperature take the client defaults.
type Request struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
}

// UserRequest builds a request with one user message.
func UserRequest(systemPrompt, text string) Request {
	return Request{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: text}},
	}
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is what a backend returns on success.
type Completion struct {
	Content string
	Usage   Usage
	Model   string
}

// Result is the outcome of Client.Generate. It is produced once and never
// mutated afterwards.
type Result struct {
	Content   string `json:"content"`
	Usage     Usage  `json:"usage"`
	Model     string `json:"model"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Backend is a concrete text-generation provider.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Model() string
}

// Generator is implemented by Client and used by feature code.
type Generator interface {
	Generate(ctx context.Context, req Request) Result
}
