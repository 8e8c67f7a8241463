package usage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.Open(storage.Config{DSN: filepath.Join(t.TempDir(), "usage.db")}, zap.NewNop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close(db) })

	store := NewStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestRecorderWritesOneRowPerCall(t *testing.T) {
	store := newTestStore(t)
	recorder := NewRecorder(store, zap.NewNop())
	ctx := context.Background()

	recorder.Record(ctx, EntryFromResult("7", "resume_analysis", "mock", ai.Result{
		Model:     "mock-ai-v1",
		Usage:     ai.Usage{InputTokens: 120, OutputTokens: 80},
		LatencyMS: 12,
		Success:   true,
	}))
	recorder.Record(ctx, EntryFromResult("7", "job_match", "claude", ai.Result{
		Model:     "claude-3-5-sonnet-20241022",
		LatencyMS: 30,
		Error:     "bad status: 529",
	}))
	recorder.Record(ctx, Entry{ActorID: "8", Action: "chat", Success: true, LatencyMS: 5})

	records, err := store.List(ctx, Filter{ActorID: "7"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for actor 7, got %d", len(records))
	}

	var failed *Record
	for i := range records {
		if !records[i].Success {
			failed = &records[i]
		}
	}
	if failed == nil || failed.ErrorText != "bad status: 529" || failed.ActionKind != "job_match" {
		t.Fatalf("failure row not stored as expected: %+v", records)
	}
	if failed.CreatedAt.IsZero() {
		t.Fatalf("created_at must be set")
	}

	summary, err := store.Summary(ctx, Filter{ActorID: "7"})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Calls != 2 || summary.Failures != 1 || summary.InputTokens != 120 || summary.OutputTokens != 80 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.AvgLatencyMS != 21 {
		t.Fatalf("expected average latency 21, got %v", summary.AvgLatencyMS)
	}
}

func TestListFiltersAndLimits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := &Record{ActorID: "1", ActionKind: "chat", Success: true, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	records, err := store.List(ctx, Filter{ActionKind: "chat", Since: base.Add(2 * time.Hour), Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}
}

func TestInsertRejectsStoredRecord(t *testing.T) {
	store := newTestStore(t)
	if err := store.Insert(context.Background(), &Record{ID: 3}); err == nil {
		t.Fatalf("expected error when inserting a record that already has an id")
	}
}

type failingInserter struct{}

func (failingInserter) Insert(context.Context, *Record) error { return errors.New("disk full") }

func TestRecorderLogsWriteFailure(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	recorder := &Recorder{store: failingInserter{}, logger: zap.New(core), now: time.Now}

	recorder.Record(context.Background(), Entry{ActorID: "5", Action: "spam_detection", Provider: "mock"})

	entries := observed.FilterMessage("recording ai usage failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected failure to be logged, got %d entries", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
	ctx := entries[0].ContextMap()
	if ctx["actor_id"] != "5" || ctx["action_kind"] != "spam_detection" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
}

