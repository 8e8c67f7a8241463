package ai

import "strings"

// SplitSystem collects the request system prompt and any system-role
// messages into one prompt and returns the remaining messages in order.
func SplitSystem(req Request) (string, []Message) {
	parts := make([]string, 0, 1)
	if s := strings.TrimSpace(req.SystemPrompt); s != "" {
		parts = append(parts, s)
	}

	rest := make([]Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			if s := strings.TrimSpace(msg.Content); s != "" {
				parts = append(parts, s)
			}
			continue
		}
		rest = append(rest, msg)
	}

	return strings.Join(parts, "\n\n"), rest
}

// InlineSystem prefixes system onto the first user message for backends that
// reject a system role. The input slice is not modified.
func InlineSystem(system string, messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)

	if system == "" {
		return out
	}

	for i := range out {
		if out[i].Role == RoleUser {
			out[i].Content = system + "\n\n" + out[i].Content
			return out
		}
	}

	return append([]Message{{Role: RoleUser, Content: system}}, out...)
}
