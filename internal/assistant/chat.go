package assistant

import (
	"context"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/portal"
)

const maxHistory = 10

// Chat answers message in a conversation. Only the last ten history turns
// are sent, and system turns in the history are dropped.
func (s *Service) Chat(ctx context.Context, actor string, role portal.UserRole, history []ai.Message, message string) (*TextReply, error) {
	if err := required("message", message); err != nil {
		return nil, err
	}

	req := ai.Request{
		SystemPrompt: SystemPrompt(role),
		Messages:     append(recentHistory(history), ai.Message{Role: ai.RoleUser, Content: message}),
	}

	res, err := s.run(ctx, actor, ActionChat, req)
	if err != nil {
		return nil, err
	}
	return &TextReply{Content: res.Content, Meta: metaOf(res)}, nil
}

func recentHistory(history []ai.Message) []ai.Message {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	out := make([]ai.Message, 0, len(history)+1)
	for _, msg := range history {
		if msg.Role == ai.RoleUser || msg.Role == ai.RoleAssistant {
			out = append(out, msg)
		}
	}
	return out
}
