package assistant

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/ai/normalize"
	"github.com/spigell/job-portal/internal/portal"
)

const (
	MinResumeChars = 50
	MaxResumeChars = 15000

	suggestThreshold  = 0.3
	maxFallbackSkills = 20
)

var capitalizedWord = regexp.MustCompile(`\b[A-Z][a-zA-Z+#.]*`)

type ResumeAnalysis struct {
	Analysis   map[string]any `json:"analysis"`
	Structured bool           `json:"structured"`
	Meta       Meta           `json:"meta"`
}

type SkillCategory struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

type SkillExtraction struct {
	Skills     []string        `json:"skills"`
	Categories []SkillCategory `json:"categories,omitempty"`
	Meta       Meta            `json:"meta"`
}

type JobMatch struct {
	MatchScore      float64  `json:"match_score"`
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations []string `json:"recommendations"`
	RawResponse     string   `json:"raw_response,omitempty"`
	Note            string   `json:"note,omitempty"`
	Meta            Meta     `json:"meta"`
}

type SkillRecommendation struct {
	Skill    string `json:"skill"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
	Timeline string `json:"timeline"`
}

type SkillRecommendations struct {
	Recommendations []SkillRecommendation `json:"recommendations"`
	RawResponse     string                `json:"raw_response,omitempty"`
	Note            string                `json:"note,omitempty"`
	Meta            Meta                  `json:"meta"`
}

type JobSuggestion struct {
	JobID          string   `json:"job_id"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	MatchScore     float64  `json:"match_score"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

// ValidateResume applies the size limits checked before any resume is sent
// to a provider.
func ValidateResume(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinResumeChars {
		return &ValidationError{Message: "Resume text is too short or empty. Please provide a complete resume."}
	}

	size := utf8.RuneCountInString(text)
	if size <= MaxResumeChars {
		return nil
	}

	return &ValidationError{
		Message: fmt.Sprintf("Your resume is %s characters (%.1fKB). Maximum allowed is %dKB.",
			thousands(size), float64(size)/1024, MaxResumeChars/1024),
		Details: map[string]any{
			"resume_size": size,
			"max_allowed": MaxResumeChars,
			"word_count":  len(strings.Fields(text)),
		},
		Suggestions: []string{
			"If you uploaded a PDF: Try saving it as plain text or copying the text directly",
			"Check if your resume has duplicate content or hidden formatting",
			"A typical 1-2 page resume should be 2,000-5,000 characters",
		},
	}
}

func (s *Service) AnalyzeResume(ctx context.Context, actor, text string) (*ResumeAnalysis, error) {
	if err := ValidateResume(text); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionResumeAnalysis, ai.UserRequest(staticPrompt("resume_analysis"), text))
	if err != nil {
		return nil, err
	}

	doc := document(res, len(text))
	return &ResumeAnalysis{Analysis: doc.Content, Structured: doc.Structured, Meta: doc.Meta}, nil
}

// ResumeFeedback returns free-form ATS feedback.
func (s *Service) ResumeFeedback(ctx context.Context, actor, text string) (*TextReply, error) {
	if err := ValidateResume(text); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionResumeFeedback, ai.UserRequest(staticPrompt("resume_feedback"), text))
	if err != nil {
		return nil, err
	}
	return &TextReply{Content: res.Content, Meta: metaOf(res)}, nil
}

func (s *Service) ExtractSkills(ctx context.Context, actor, text string) (*SkillExtraction, error) {
	if err := required("resume_text", text); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionSkillExtraction, ai.UserRequest(staticPrompt("skill_extraction"), text))
	if err != nil {
		return nil, err
	}

	out := &SkillExtraction{Meta: metaOf(res)}
	parsed := normalize.Parse(res.Content)

	var items any
	switch {
	case parsed.IsStructured():
		items = parsed.Value
		if obj, ok := parsed.Object(); ok {
			items = obj["skills"]
		}
	default:
		out.Skills = skillsFromText(res.Content)
		return out, nil
	}

	list, _ := items.([]any)
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out.Skills = append(out.Skills, v)
		case map[string]any:
			var cat SkillCategory
			if err := normalize.Decode(normalize.Structured(v), &cat); err != nil {
				continue
			}
			out.Categories = append(out.Categories, cat)
			out.Skills = append(out.Skills, cat.Skills...)
		}
	}

	if len(out.Skills) == 0 {
		out.Skills = skillsFromText(res.Content)
	}
	return out, nil
}

func (s *Service) MatchJob(ctx context.Context, actor, resume string, job portal.Job) (*JobMatch, error) {
	if err := required("resume_text", resume); err != nil {
		return nil, err
	}

	system, err := renderPrompt("job_match", map[string]string{
		"Title":       job.Title,
		"Skills":      strings.Join(job.RequiredSkills, ", "),
		"Description": job.Description,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionJobMatch, ai.UserRequest(system, "Resume:\n"+resume))
	if err != nil {
		return nil, err
	}

	out := &JobMatch{}
	parsed := normalize.Parse(res.Content)
	if !parsed.IsStructured() || normalize.Decode(parsed, out) != nil {
		out = &JobMatch{RawResponse: res.Content, Note: parsed.Note}
		if out.Note == "" {
			out.Note = normalize.NoteUnstructured
		}
	}

	out.Meta = metaOf(res)
	return out, nil
}

func (s *Service) RecommendSkills(ctx context.Context, actor string, current []string, targetRole string) (*SkillRecommendations, error) {
	if err := required("target_role", targetRole); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("recommend_skills", map[string]string{
		"Skills": strings.Join(current, ", "),
		"Role":   targetRole,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionSkillRecommend, ai.UserRequest(SystemPrompt(portal.RoleCandidate), prompt))
	if err != nil {
		return nil, err
	}

	out := &SkillRecommendations{Meta: metaOf(res)}
	parsed := normalize.Parse(res.Content)

	var items any
	if parsed.IsStructured() {
		items = parsed.Value
		if obj, ok := parsed.Object(); ok {
			items = obj["recommended_skills"]
		}
	}

	if list, ok := items.([]any); ok {
		if err := normalize.Decode(normalize.Structured(list), &out.Recommendations); err == nil {
			return out, nil
		}
	}

	out.RawResponse = res.Content
	out.Note = normalize.NoteUnstructured
	return out, nil
}

// SuggestJobs keeps jobs whose required skills the candidate covers by more
// than 30%, best match first. A limit of zero returns every match.
func SuggestJobs(skills []string, jobs []portal.Job, limit int) []JobSuggestion {
	have := skillSet(skills)

	var out []JobSuggestion
	for _, job := range jobs {
		ratio, matching, missing := overlap(have, job.RequiredSkills)
		if ratio <= suggestThreshold {
			continue
		}
		out = append(out, JobSuggestion{
			JobID:          job.ID,
			Title:          job.Title,
			Company:        job.CompanyName,
			MatchScore:     percent(ratio),
			MatchingSkills: matching,
			MissingSkills:  missing,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func skillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// overlap compares required against have case-insensitively and keeps the
// original spelling of the required skills.
func overlap(have map[string]struct{}, required []string) (float64, []string, []string) {
	matching := []string{}
	missing := []string{}
	seen := map[string]struct{}{}

	for _, skill := range required {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := have[key]; ok {
			matching = append(matching, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	if len(seen) == 0 {
		return 0, matching, missing
	}
	return float64(len(matching)) / float64(len(seen)), matching, missing
}

func percent(ratio float64) float64 {
	return math.Round(ratio*100*100) / 100
}

func skillsFromText(text string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, word := range capitalizedWord.FindAllString(text, -1) {
		word = strings.TrimRight(word, ".")
		if _, ok := seen[word]; ok || word == "" {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
		if len(out) == maxFallbackSkills {
			break
		}
	}
	return out
}

func thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
