package assistant

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/spigell/job-portal/internal/portal"
)

//go:embed prompts
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

func staticPrompt(name string) string {
	data, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		panic(fmt.Sprintf("missing prompt %s: %v", name, err))
	}
	return strings.TrimSpace(string(data))
}

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// SystemPrompt returns the chat persona for role. Unknown roles get the
// candidate persona.
func SystemPrompt(role portal.UserRole) string {
	switch role {
	case portal.RoleRecruiter:
		return staticPrompt("system_recruiter")
	case portal.RoleAdmin:
		return staticPrompt("system_admin")
	default:
		return staticPrompt("system_candidate")
	}
}
