package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates
var templateFS embed.FS

// Template names match the notification kinds that carry an email.
type Template string

const (
	TemplateApplicationSubmitted     Template = "application_submitted"
	TemplateApplicationStatusChanged Template = "application_status_changed"
	TemplateNewApplication           Template = "new_application"
	TemplateJobMatch                 Template = "job_match"
	TemplateInterviewScheduled       Template = "interview_scheduled"
	TemplateInterviewCancelled       Template = "interview_cancelled"
)

const (
	dateLayout = "Monday, January 02, 2006"
	timeLayout = "03:04 PM"
)

// Data holds every variable a template may reference. Unused fields stay
// empty.
type Data struct {
	RecipientName string
	JobTitle      string
	CompanyName   string
	CandidateName string
	OldStatus     string
	NewStatus     string
	InterviewAt   time.Time
	InterviewType string
	Location      string
	Notes         string
	DashboardURL  string
}

type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

var subjects = map[Template]string{
	TemplateApplicationSubmitted:     "Application Submitted - %s",
	TemplateApplicationStatusChanged: "Application Status Update - %s",
	TemplateNewApplication:           "New Application Received - %s",
	TemplateJobMatch:                 "New Job Match: %s",
	TemplateInterviewScheduled:       "Interview Scheduled - %s",
	TemplateInterviewCancelled:       "Interview Cancelled - %s",
}

type compiled struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

var registry = mustCompile()

func funcs() map[string]any {
	return map[string]any{
		"formatDate": func(t time.Time) string { return t.Format(dateLayout) },
		"formatTime": func(t time.Time) string { return t.Format(timeLayout) },
	}
}

func mustCompile() map[Template]compiled {
	out := make(map[Template]compiled, len(subjects))
	for name := range subjects {
		html, err := htmltemplate.New(string(name)).
			Funcs(htmltemplate.FuncMap(funcs())).
			ParseFS(templateFS, "templates/layout.html", "templates/"+string(name)+".html")
		if err != nil {
			panic(fmt.Sprintf("email template %s: %v", name, err))
		}
		text, err := texttemplate.New(string(name) + ".txt").
			Funcs(texttemplate.FuncMap(funcs())).
			ParseFS(templateFS, "templates/"+string(name)+".txt")
		if err != nil {
			panic(fmt.Sprintf("email template %s: %v", name, err))
		}
		out[name] = compiled{html: html, text: text}
	}
	return out
}

// Templated reports whether kind has an email template.
func Templated(kind string) bool {
	_, ok := registry[Template(kind)]
	return ok
}

// Render looks up the template for kind and executes it with data.
func Render(kind string, data Data) (Rendered, error) {
	tpl, ok := registry[Template(kind)]
	if !ok {
		return Rendered{}, fmt.Errorf("no email template for %q", kind)
	}

	var html bytes.Buffer
	if err := tpl.html.ExecuteTemplate(&html, "layout", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	var text bytes.Buffer
	if err := tpl.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", kind, err)
	}

	return Rendered{
		Subject: fmt.Sprintf(subjects[Template(kind)], data.JobTitle),
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()) + "\n",
	}, nil
}

// DashboardURL builds the link every template points to.
func DashboardURL(frontendURL string) string {
	return strings.TrimRight(frontendURL, "/") + "/dashboard"
}
