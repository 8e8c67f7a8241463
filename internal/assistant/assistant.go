// Package assistant implements the AI features of the portal on top of the
// generation pipeline: build a prompt, generate, normalize the reply and
// record usage.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/ai/normalize"
	"github.com/spigell/job-portal/internal/logger"
	"github.com/spigell/job-portal/internal/usage"
)

const (
	ActionResumeAnalysis     = "resume_analysis"
	ActionResumeFeedback     = "resume_feedback"
	ActionSkillExtraction    = "skill_extraction"
	ActionSkillRecommend     = "skill_recommendation"
	ActionJobMatch           = "job_match"
	ActionJobDescription     = "job_description"
	ActionInterviewQuestions = "interview_questions"
	ActionCandidateSummary   = "candidate_summary"
	ActionSpamDetection      = "spam_detection"
	ActionChat               = "chat"
)

// ErrGeneration wraps a failed provider call.
var ErrGeneration = errors.New("ai generation failed")

// ValidationError rejects input before any provider call is made.
type ValidationError struct {
	Message     string         `json:"error"`
	Details     map[string]any `json:"details,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Recorder receives one entry per generation.
type Recorder interface {
	Record(ctx context.Context, e usage.Entry)
}

// Meta is the generation metadata every AI feature returns.
type Meta struct {
	Model     string   `json:"model"`
	Usage     ai.Usage `json:"usage"`
	LatencyMS int64    `json:"response_time_ms"`
}

// TextReply is a feature answer that is free text by nature.
type TextReply struct {
	Content string `json:"content"`
	Meta    Meta   `json:"meta"`
}

// Document is a structured answer with an open schema. Content is the
// decoded object, or the raw text with a note when the model did not
// return JSON.
type Document struct {
	Content    map[string]any `json:"content"`
	Structured bool           `json:"structured"`
	Meta       Meta           `json:"meta"`
}

type Service struct {
	gen      ai.Generator
	provider string
	recorder Recorder
	logger   *zap.Logger
}

// New wires the features to a generator. provider is the backend kind
// stored on usage rows.
func New(gen ai.Generator, provider string, recorder Recorder, log *zap.Logger) *Service {
	return &Service{
		gen:      gen,
		provider: provider,
		recorder: recorder,
		logger:   logger.WithFields(log).Named("assistant"),
	}
}

// run performs one generation and records it, whatever the outcome.
func (s *Service) run(ctx context.Context, actor, action string, req ai.Request) (ai.Result, error) {
	res := s.gen.Generate(ctx, req)

	if s.recorder != nil {
		s.recorder.Record(ctx, usage.EntryFromResult(actor, action, s.provider, res))
	}

	if !res.Success {
		s.logger.Warn("ai feature failed",
			append(logger.ActionFields(actor, action), zap.String("error", res.Error))...,
		)
		return res, fmt.Errorf("%w: %s", ErrGeneration, res.Error)
	}

	return res, nil
}

func metaOf(res ai.Result) Meta {
	return Meta{Model: res.Model, Usage: res.Usage, LatencyMS: res.LatencyMS}
}

func document(res ai.Result, inputSize int) *Document {
	parsed := normalize.Parse(res.Content, normalize.WithInputSize(inputSize))
	return &Document{
		Content:    parsed.AsMap(),
		Structured: parsed.IsStructured(),
		Meta:       metaOf(res),
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Message: field + " is required"}
	}
	return nil
}
