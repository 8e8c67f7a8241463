package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/notify"
)

const (
	DefaultSpec  = "@every 5m"
	DefaultLimit = 50
)

// Sweeper sends notifications that were stored but never emailed.
type Sweeper interface {
	SendPending(ctx context.Context, limit int) (notify.SweepReport, error)
}

type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
	Limit   int    `mapstructure:"limit"`
}

// Scheduler runs the pending-email sweep on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	cfg     Config
	logger  *zap.Logger
	entryID cron.EntryID
}

func New(sweeper Sweeper, cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}

	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger.Named("cron"),
	}
}

func (s *Scheduler) Start() error {
	id, err := s.cron.AddFunc(s.cfg.Spec, func() { s.runOnce(context.Background()) })
	if err != nil {
		return fmt.Errorf("schedule pending email sweep %q: %w", s.cfg.Spec, err)
	}
	s.entryID = id

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.cfg.Spec), zap.Int("limit", s.cfg.Limit))
	return nil
}

// Next is the time of the next sweep, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.logger.Debug("sweeping pending notification emails")

	report, err := s.sweeper.SendPending(ctx, s.cfg.Limit)
	if err != nil {
		s.logger.Error("pending email sweep failed", zap.Error(err))
		return
	}
	if report.Sent > 0 || report.Failed > 0 {
		s.logger.Info("pending email sweep done",
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
		)
	}
}
