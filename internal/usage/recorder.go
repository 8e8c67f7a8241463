package usage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/logger"
)

// Entry is what feature code reports after an AI call.
type Entry struct {
	ActorID   string
	Action    string
	Provider  string
	Model     string
	Usage     ai.Usage
	LatencyMS int64
	Success   bool
	Error     string
}

// EntryFromResult fills an Entry from a generation result.
func EntryFromResult(actorID, action, provider string, result ai.Result) Entry {
	return Entry{
		ActorID:   actorID,
		Action:    action,
		Provider:  provider,
		Model:     result.Model,
		Usage:     result.Usage,
		LatencyMS: result.LatencyMS,
		Success:   result.Success,
		Error:     result.Error,
	}
}

type inserter interface {
	Insert(ctx context.Context, rec *Record) error
}

// Recorder writes one row per call, synchronously. A failed write is logged
// and never surfaces to the caller.
type Recorder struct {
	store  inserter
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(store *Store, log *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.WithFields(log),
		now:    time.Now,
	}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	rec := &Record{
		ActorID:      e.ActorID,
		ActionKind:   e.Action,
		Provider:     e.Provider,
		Model:        e.Model,
		InputTokens:  e.Usage.InputTokens,
		OutputTokens: e.Usage.OutputTokens,
		LatencyMS:    e.LatencyMS,
		Success:      e.Success,
		ErrorText:    e.Error,
		CreatedAt:    r.now().UTC(),
	}

	fields := append(logger.ActionFields(e.ActorID, e.Action), logger.CommonFields(e.Provider, e.Model)...)

	if err := r.store.Insert(ctx, rec); err != nil {
		r.logger.Error("recording ai usage failed", append(fields, zap.Error(err))...)
		return
	}

	r.logger.Debug("ai usage recorded", append(fields,
		zap.Uint("usage_id", rec.ID),
		zap.Int64("latency_ms", rec.LatencyMS),
		zap.Bool("success", rec.Success),
	)...)
}
