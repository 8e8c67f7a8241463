package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubBackend struct {
	completion *Completion
	err        error
	panicWith  any

	calls       int
	lastRequest Request
	deadlineSet bool
}

func (s *stubBackend) Complete(ctx context.Context, req Request) (*Completion, error) {
	s.calls++
	s.lastRequest = req
	_, s.deadlineSet = ctx.Deadline()
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.completion, s.err
}

func (s *stubBackend) Model() string { return "stub-model" }

func steppingClock(step time.Duration) func() time.Time {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func TestGenerateSuccess(t *testing.T) {
	backend := &stubBackend{completion: &Completion{
		Content: `{"ok":true}`,
		Usage:   Usage{InputTokens: 10, OutputTokens: 4},
	}}
	client := NewClient(KindOpenAI, backend, Config{Kind: KindOpenAI, APIKey: "k"}, zap.NewNop())
	client.now = steppingClock(25 * time.Millisecond)

	result := client.Generate(context.Background(), UserRequest("be brief", "hello"))

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", result.Content)
	}
	if result.Model != "stub-model" {
		t.Fatalf("expected backend model fallback, got %q", result.Model)
	}
	if result.LatencyMS != 25 {
		t.Fatalf("expected latency 25ms, got %d", result.LatencyMS)
	}
	if backend.calls != 1 {
		t.Fatalf("expected exactly one backend call, got %d", backend.calls)
	}
	if !backend.deadlineSet {
		t.Fatalf("expected a bounded deadline on the backend context")
	}
	if backend.lastRequest.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", backend.lastRequest.MaxTokens)
	}
	if backend.lastRequest.Temperature == nil || *backend.lastRequest.Temperature != DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", backend.lastRequest.Temperature)
	}
}

func TestGenerateConvertsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend *stubBackend
		request Request
		errText string
		calls   int
	}{
		{
			name:    "transport error",
			backend: &stubBackend{err: errors.New("dial tcp: connection refused")},
			request: UserRequest("", "hi"),
			errText: "dial tcp: connection refused",
			calls:   1,
		},
		{
			name:    "panic in backend",
			backend: &stubBackend{panicWith: "boom"},
			request: UserRequest("", "hi"),
			errText: "provider panic: boom",
			calls:   1,
		},
		{
			name:    "nil completion",
			backend: &stubBackend{},
			request: UserRequest("", "hi"),
			errText: "provider returned no completion",
			calls:   1,
		},
		{
			name:    "no messages",
			backend: &stubBackend{},
			request: Request{SystemPrompt: "only system"},
			errText: "request has no messages",
			calls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := NewClient(KindClaude, tt.backend, Config{Kind: KindClaude, APIKey: "k"}, zap.NewNop())
			client.now = steppingClock(time.Millisecond)

			result := client.Generate(context.Background(), tt.request)

			if result.Success {
				t.Fatalf("expected failure")
			}
			if result.Error != tt.errText {
				t.Fatalf("expected error %q, got %q", tt.errText, result.Error)
			}
			if result.Content != "" {
				t.Fatalf("expected empty content, got %q", result.Content)
			}
			if result.LatencyMS != 1 {
				t.Fatalf("expected latency to be measured, got %d", result.LatencyMS)
			}
			if tt.backend.calls != tt.calls {
				t.Fatalf("expected %d backend calls, got %d", tt.calls, tt.backend.calls)
			}
		})
	}
}

func TestGenerateLogsFailureWithProviderFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	client := NewClient(KindOpenRouter, &stubBackend{err: errors.New("bad status: 502")}, Config{Kind: KindOpenRouter, APIKey: "k"}, zap.New(core))

	client.Generate(context.Background(), UserRequest("", "hi"))

	entries := observed.FilterMessage("generate failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["ai_provider"] != "openrouter" || ctx["ai_model"] != "stub-model" {
		t.Fatalf("unexpected provider fields: %v", ctx)
	}
	if ctx["error"] != "bad status: 502" {
		t.Fatalf("unexpected error field: %v", ctx["error"])
	}
}

func TestGenerateKeepsCallerOverrides(t *testing.T) {
	backend := &stubBackend{completion: &Completion{Content: "x", Model: "vendor-model"}}
	client := NewClient(KindOpenAI, backend, Config{Kind: KindOpenAI, APIKey: "k", MaxTokens: 100}, zap.NewNop())

	temp := 0.1
	req := UserRequest("", "hi")
	req.MaxTokens = 50
	req.Temperature = &temp

	result := client.Generate(context.Background(), req)
	if result.Model != "vendor-model" {
		t.Fatalf("expected model reported by the vendor, got %q", result.Model)
	}
	if backend.lastRequest.MaxTokens != 50 || *backend.lastRequest.Temperature != 0.1 {
		t.Fatalf("caller overrides were not kept: %+v", backend.lastRequest)
	}
}

func TestGenerateKeepsZeroTemperature(t *testing.T) {
	backend := &stubBackend{completion: &Completion{Content: "ok"}}
	zero := 0.0
	client := NewClient(KindClaude, backend, Config{Kind: KindClaude, APIKey: "k", Temperature: &zero}, zap.NewNop())

	client.Generate(context.Background(), UserRequest("", "deterministic please"))

	if backend.lastRequest.Temperature == nil || *backend.lastRequest.Temperature != 0 {
		t.Fatalf("expected temperature 0 to reach the backend, got %v", backend.lastRequest.Temperature)
	}
}
