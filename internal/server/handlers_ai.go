package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/assistant"
	"github.com/spigell/job-portal/internal/portal"
	"github.com/spigell/job-portal/internal/usage"
)

type resumeRequest struct {
	ResumeText string `json:"resume_text"`
}

type matchRequest struct {
	ResumeText string     `json:"resume_text"`
	Job        portal.Job `json:"job"`
}

type recommendRequest struct {
	Skills     []string `json:"skills"`
	TargetRole string   `json:"target_role"`
}

type descriptionRequest struct {
	Position     string `json:"position"`
	Company      string `json:"company"`
	Requirements string `json:"requirements"`
}

type questionsRequest struct {
	Role   string   `json:"role"`
	Level  string   `json:"level"`
	Skills []string `json:"skills"`
}

type spamRequest struct {
	Content string `json:"content"`
}

type chatRequest struct {
	Role    portal.UserRole `json:"role"`
	History []ai.Message    `json:"history"`
	Message string          `json:"message"`
}

type suggestRequest struct {
	Skills []string     `json:"skills"`
	Jobs   []portal.Job `json:"jobs"`
	Limit  int          `json:"limit"`
}

type rankRequest struct {
	Job          portal.Job           `json:"job"`
	Applications []portal.Application `json:"applications"`
}

// bind decodes the JSON body and answers 400 on failure.
func bind[T any](c *gin.Context) (T, bool) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return req, false
	}
	return req, true
}

// reply writes out or maps err.
func reply[T any](c *gin.Context, out T, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) analyzeResume(c *gin.Context) {
	req, ok := bind[resumeRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.AnalyzeResume(c.Request.Context(), actor(c), req.ResumeText)
	reply(c, out, err)
}

func (s *Server) resumeFeedback(c *gin.Context) {
	req, ok := bind[resumeRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.ResumeFeedback(c.Request.Context(), actor(c), req.ResumeText)
	reply(c, out, err)
}

func (s *Server) extractSkills(c *gin.Context) {
	req, ok := bind[resumeRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.ExtractSkills(c.Request.Context(), actor(c), req.ResumeText)
	reply(c, out, err)
}

func (s *Server) recommendSkills(c *gin.Context) {
	req, ok := bind[recommendRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.RecommendSkills(c.Request.Context(), actor(c), req.Skills, req.TargetRole)
	reply(c, out, err)
}

func (s *Server) matchJob(c *gin.Context) {
	req, ok := bind[matchRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.MatchJob(c.Request.Context(), actor(c), req.ResumeText, req.Job)
	reply(c, out, err)
}

func (s *Server) jobDescription(c *gin.Context) {
	req, ok := bind[descriptionRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.GenerateJobDescription(c.Request.Context(), actor(c), req.Position, req.Company, req.Requirements)
	reply(c, out, err)
}

func (s *Server) interviewQuestions(c *gin.Context) {
	req, ok := bind[questionsRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.InterviewQuestions(c.Request.Context(), actor(c), req.Role, req.Level, req.Skills)
	reply(c, out, err)
}

func (s *Server) summarizeCandidate(c *gin.Context) {
	req, ok := bind[resumeRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.SummarizeCandidate(c.Request.Context(), actor(c), req.ResumeText)
	reply(c, out, err)
}

func (s *Server) detectSpam(c *gin.Context) {
	req, ok := bind[spamRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.DetectSpam(c.Request.Context(), actor(c), req.Content)
	reply(c, out, err)
}

func (s *Server) chat(c *gin.Context) {
	req, ok := bind[chatRequest](c)
	if !ok {
		return
	}
	out, err := s.deps.Assistant.Chat(c.Request.Context(), actor(c), req.Role, req.History, req.Message)
	reply(c, out, err)
}

func (s *Server) suggestJobs(c *gin.Context) {
	req, ok := bind[suggestRequest](c)
	if !ok {
		return
	}
	if len(req.Skills) == 0 {
		fail(c, &assistant.ValidationError{Message: "skills are required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": assistant.SuggestJobs(req.Skills, req.Jobs, req.Limit)})
}

func (s *Server) rankCandidates(c *gin.Context) {
	req, ok := bind[rankRequest](c)
	if !ok {
		return
	}
	if len(req.Job.RequiredSkills) == 0 {
		fail(c, &assistant.ValidationError{Message: "job required_skills are required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": assistant.RankCandidates(req.Job, req.Applications)})
}

func (s *Server) usageSummary(c *gin.Context) {
	if s.deps.Usage == nil {
		fail(c, errors.New("usage store is not configured"))
		return
	}
	summary, err := s.deps.Usage.Summary(c.Request.Context(), usage.Filter{ActorID: actor(c)})
	reply(c, summary, err)
}
