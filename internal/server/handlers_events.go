package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spigell/job-portal/internal/notify"
	"github.com/spigell/job-portal/internal/portal"
)

type applicationChange struct {
	Before portal.Application `json:"before"`
	After  portal.Application `json:"after"`
}

type interviewChange struct {
	Before portal.Interview `json:"before"`
	After  portal.Interview `json:"after"`
}

func (s *Server) applicationCreated(c *gin.Context) {
	app, ok := bind[portal.Application](c)
	if !ok {
		return
	}
	if err := validApplication(app); err != nil {
		badRequest(c, err)
		return
	}
	if app.Job.Recruiter.ID == "" {
		badRequest(c, errors.New("job.recruiter.id is required"))
		return
	}

	if err := s.deps.Notifier.ApplicationCreated(c.Request.Context(), app); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fired": true})
}

func (s *Server) applicationStatusChanged(c *gin.Context) {
	change, ok := bind[applicationChange](c)
	if !ok {
		return
	}
	if err := validApplication(change.After); err != nil {
		badRequest(c, err)
		return
	}
	if change.After.Status == "" {
		badRequest(c, errors.New("after.status is required"))
		return
	}
	if change.Before.Status != "" && !change.Before.Status.Valid() {
		badRequest(c, errors.New("before.status is not a known application status"))
		return
	}

	row, err := s.deps.Notifier.ApplicationStatusChanged(c.Request.Context(), change.Before, change.After)
	respondFired(c, row, err)
}

func (s *Server) interviewCreated(c *gin.Context) {
	iv, ok := bind[portal.Interview](c)
	if !ok {
		return
	}
	if err := validInterview(iv); err != nil {
		badRequest(c, err)
		return
	}

	row, err := s.deps.Notifier.InterviewCreated(c.Request.Context(), iv)
	respondFired(c, row, err)
}

func (s *Server) interviewStatusChanged(c *gin.Context) {
	change, ok := bind[interviewChange](c)
	if !ok {
		return
	}
	if err := validInterview(change.After); err != nil {
		badRequest(c, err)
		return
	}

	row, err := s.deps.Notifier.InterviewStatusChanged(c.Request.Context(), change.Before, change.After)
	respondFired(c, row, err)
}

func respondFired(c *gin.Context, row *notify.Notification, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	if row == nil {
		c.JSON(http.StatusOK, gin.H{"fired": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fired": true, "notification": row})
}

func validApplication(app portal.Application) error {
	switch {
	case app.ID == "":
		return errors.New("application id is required")
	case app.Candidate.ID == "":
		return errors.New("candidate.id is required")
	case app.Status != "" && !app.Status.Valid():
		return errors.New("status is not a known application status")
	}
	return nil
}

func validInterview(iv portal.Interview) error {
	switch {
	case iv.Application.ID == "" || iv.Application.Candidate.ID == "":
		return errors.New("application with a candidate is required")
	case iv.ScheduledAt.IsZero():
		return errors.New("scheduled_at is required")
	case !iv.Status.Valid():
		return errors.New("status is not a known interview status")
	case iv.Type != "" && !iv.Type.Valid():
		return errors.New("interview_type is not a known type")
	}
	return nil
}
