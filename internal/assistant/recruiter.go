package assistant

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/portal"
)

type CandidateRank struct {
	ApplicationID  string                   `json:"application_id"`
	CandidateID    string                   `json:"candidate_id"`
	CandidateName  string                   `json:"candidate_name"`
	CandidateEmail string                   `json:"candidate_email"`
	MatchScore     float64                  `json:"match_score"`
	MatchingSkills []string                 `json:"matching_skills"`
	Status         portal.ApplicationStatus `json:"status"`
}

func (s *Service) GenerateJobDescription(ctx context.Context, actor, position, company, requirements string) (*TextReply, error) {
	if err := required("position", position); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("job_description", map[string]string{
		"Position":     position,
		"Company":      company,
		"Requirements": requirements,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionJobDescription, ai.UserRequest(SystemPrompt(portal.RoleRecruiter), prompt))
	if err != nil {
		return nil, err
	}
	return &TextReply{Content: res.Content, Meta: metaOf(res)}, nil
}

func (s *Service) InterviewQuestions(ctx context.Context, actor, role, level string, skills []string) (*Document, error) {
	if err := required("role", role); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("interview_questions", map[string]string{
		"Role":   role,
		"Level":  level,
		"Skills": strings.Join(skills, ", "),
	})
	if err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionInterviewQuestions, ai.UserRequest(SystemPrompt(portal.RoleRecruiter), prompt))
	if err != nil {
		return nil, err
	}
	return document(res, len(prompt)), nil
}

func (s *Service) SummarizeCandidate(ctx context.Context, actor, resume string) (*TextReply, error) {
	if err := required("resume_text", resume); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionCandidateSummary, ai.UserRequest(staticPrompt("candidate_summary"), resume))
	if err != nil {
		return nil, err
	}
	return &TextReply{Content: res.Content, Meta: metaOf(res)}, nil
}

// RankCandidates scores every application by the share of the job's
// required skills found in the candidate's skills, or in the resume words
// when no skills were extracted. Best match first.
func RankCandidates(job portal.Job, apps []portal.Application) []CandidateRank {
	out := make([]CandidateRank, 0, len(apps))

	for _, app := range apps {
		have := skillSet(app.Skills)
		if len(have) == 0 {
			have = resumeWords(app.ResumeText)
		}

		ratio, matching, _ := overlap(have, job.RequiredSkills)
		out = append(out, CandidateRank{
			ApplicationID:  app.ID,
			CandidateID:    app.Candidate.ID,
			CandidateName:  app.Candidate.DisplayName(),
			CandidateEmail: app.Candidate.Email,
			MatchScore:     percent(ratio),
			MatchingSkills: matching,
			Status:         app.Status,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}

func resumeWords(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '(' || r == ')'
	})

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimRight(w, ".:")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
