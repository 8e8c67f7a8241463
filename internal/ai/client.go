package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/logger"
	"github.com/spigell/job-portal/internal/utils"
)

const defaultMaxLogLength = 200

// Client hides which backend answers a request. It is built once by the
// composition root and shared by reference.
type Client struct {
	kind    Kind
	backend Backend
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	maxLogLen int
}

// NewClient wraps a backend selected for cfg.
func NewClient(kind Kind, backend Backend, cfg Config, log *zap.Logger) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		kind:      kind,
		backend:   backend,
		cfg:       cfg,
		logger:    logger.WithCommonFields(log, string(kind), backend.Model()),
		now:       time.Now,
		maxLogLen: defaultMaxLogLength,
	}
}

func (c *Client) Kind() Kind { return c.kind }

func (c *Client) Model() string { return c.backend.Model() }

func (c *Client) IsMock() bool { return c.kind == KindMock }

// Generate makes exactly one backend call. Every failure is reported through
// the returned Result; the latency covers the whole call.
func (c *Client) Generate(ctx context.Context, req Request) (result Result) {
	start := c.now()

	defer func() {
		if r := recover(); r != nil {
			result = c.failure(fmt.Errorf("provider panic: %v", r))
		}
		result.LatencyMS = c.now().Sub(start).Milliseconds()
		c.logResult(result)
	}()

	req = c.prepare(req)
	if len(req.Messages) == 0 {
		return c.failure(errors.New("request has no messages"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.logger.Debug("generate request",
		zap.Int("messages", len(req.Messages)),
		zap.Int("max_tokens", req.MaxTokens),
		zap.String("prompt_preview", utils.TruncateForLog(lastUserContent(req.Messages), c.maxLogLen)),
	)

	completion, err := c.backend.Complete(ctx, req)
	if err != nil {
		return c.failure(err)
	}
	if completion == nil {
		return c.failure(errors.New("provider returned no completion"))
	}

	model := completion.Model
	if model == "" {
		model = c.backend.Model()
	}

	return Result{
		Content: completion.Content,
		Usage:   completion.Usage,
		Model:   model,
		Success: true,
	}
}

func (c *Client) prepare(req Request) Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
	if req.Temperature == nil {
		t := *c.cfg.Temperature
		req.Temperature = &t
	}
	return req
}

func (c *Client) failure(err error) Result {
	return Result{
		Model: c.backend.Model(),
		Error: err.Error(),
	}
}

func (c *Client) logResult(result Result) {
	fields := []zap.Field{
		zap.Bool("success", result.Success),
		zap.Int64("latency_ms", result.LatencyMS),
		zap.Int("input_tokens", result.Usage.InputTokens),
		zap.Int("output_tokens", result.Usage.OutputTokens),
	}

	if !result.Success {
		c.logger.Warn("generate failed", append(fields, zap.String("error", result.Error))...)
		return
	}

	c.logger.Debug("generate response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(result.Content)),
		zap.String("response_preview", utils.TruncateForLog(result.Content, c.maxLogLen)),
	)...)
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
