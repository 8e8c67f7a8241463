// Package server exposes the AI features, the notification inbox and the
// domain event hooks over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/assistant"
	"github.com/spigell/job-portal/internal/notify"
	"github.com/spigell/job-portal/internal/usage"
)

const (
	DefaultAddr     = ":8000"
	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

// Deps are the services the handlers call into.
type Deps struct {
	Assistant     *assistant.Service
	Usage         *usage.Store
	Notifications *notify.Store
	Notifier      *notify.Notifier
}

type Server struct {
	cfg    Config
	deps   Deps
	engine *gin.Engine
	logger *zap.Logger
	now    func() time.Time
}

func New(cfg Config, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: gin.New(),
		logger: logger.Named("http"),
		now:    time.Now,
	}

	s.engine.Use(RequestID(), AccessLog(s.logger), Recovery(s.logger))
	s.routes()

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")

	ai := api.Group("/ai", RequireActor())
	{
		ai.POST("/resume/analyze", s.analyzeResume)
		ai.POST("/resume/feedback", s.resumeFeedback)
		ai.POST("/skills/extract", s.extractSkills)
		ai.POST("/skills/recommend", s.recommendSkills)
		ai.POST("/jobs/match", s.matchJob)
		ai.POST("/jobs/description", s.jobDescription)
		ai.POST("/jobs/suggest", s.suggestJobs)
		ai.POST("/interview/questions", s.interviewQuestions)
		ai.POST("/candidates/summary", s.summarizeCandidate)
		ai.POST("/candidates/rank", s.rankCandidates)
		ai.POST("/spam", s.detectSpam)
		ai.POST("/chat", s.chat)
		ai.GET("/usage", s.usageSummary)
	}

	notifications := api.Group("/notifications", RequireActor())
	{
		notifications.GET("", s.listNotifications)
		notifications.GET("/recent", s.recentNotifications)
		notifications.GET("/unread-count", s.unreadCount)
		notifications.POST("/:id/read", s.markRead)
		notifications.POST("/read-all", s.markAllRead)
	}

	events := api.Group("/events")
	{
		events.POST("/application-created", s.applicationCreated)
		events.POST("/application-status-changed", s.applicationStatusChanged)
		events.POST("/interview-created", s.interviewCreated)
		events.POST("/interview-status-changed", s.interviewStatusChanged)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
