package assistant

import (
	"context"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/ai/normalize"
)

type SpamCheck struct {
	IsSpam            bool     `json:"is_spam"`
	Confidence        float64  `json:"confidence"`
	RedFlags          []string `json:"red_flags"`
	RecommendedAction string   `json:"recommended_action"`
	Reasoning         string   `json:"reasoning,omitempty"`
	RawResponse       string   `json:"raw_response,omitempty"`
	Meta              Meta     `json:"meta"`
}

// DetectSpam asks the model to classify content. A reply that is not JSON is
// returned as raw_response with the flags left zero.
func (s *Service) DetectSpam(ctx context.Context, actor, content string) (*SpamCheck, error) {
	if err := required("content", content); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, actor, ActionSpamDetection, ai.UserRequest(staticPrompt("spam_detection"), content))
	if err != nil {
		return nil, err
	}

	out := &SpamCheck{}
	parsed := normalize.Parse(res.Content)
	if !parsed.IsStructured() || normalize.Decode(parsed, out) != nil {
		out = &SpamCheck{RawResponse: res.Content}
	}

	out.Meta = metaOf(res)
	return out, nil
}
