package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-portal/internal/notify"
)

type stubSweeper struct {
	report notify.SweepReport
	err    error
	limits []int
}

func (s *stubSweeper) SendPending(_ context.Context, limit int) (notify.SweepReport, error) {
	s.limits = append(s.limits, limit)
	return s.report, s.err
}

func TestStartSchedulesSweep(t *testing.T) {
	s := New(&stubSweeper{}, Config{Spec: "@every 1h"}, nil)

	if !s.Next().IsZero() {
		t.Fatalf("next run should be zero before start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if s.Next().IsZero() {
		t.Fatalf("expected a scheduled next run")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&stubSweeper{}, Config{Spec: "every tuesday"}, nil)
	if err := s.Start(); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestRunOnceUsesLimitAndLogs(t *testing.T) {
	sweeper := &stubSweeper{report: notify.SweepReport{Scanned: 2, Sent: 2}}
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(sweeper, Config{}, zap.New(core))

	s.runOnce(context.Background())

	if len(sweeper.limits) != 1 || sweeper.limits[0] != DefaultLimit {
		t.Fatalf("unexpected limits: %v", sweeper.limits)
	}
	if logs.FilterMessage("pending email sweep done").Len() != 1 {
		t.Fatalf("expected summary log, got %v", logs.All())
	}

	sweeper.err = errors.New("db down")
	s.runOnce(context.Background())
	if logs.FilterMessage("pending email sweep failed").Len() != 1 {
		t.Fatalf("expected failure log")
	}
}
