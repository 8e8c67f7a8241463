// Package portal holds the collaborator entities the core reads from. They
// are owned by the surrounding web application; this package only describes
// the fields the pipelines need.
package portal

import (
	"strings"
	"time"

	"github.com/spigell/job-portal/internal/utils"
)

type UserRole string

const (
	RoleCandidate UserRole = "candidate"
	RoleRecruiter UserRole = "recruiter"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	Role      UserRole `json:"role"`
}

// DisplayName is the first name, or the local part of the email address.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	return utils.LocalPart(u.Email)
}

type Job struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	CompanyName    string   `json:"company_name"`
	Recruiter      User     `json:"recruiter"`
	RequiredSkills []string `json:"required_skills"`
	Description    string   `json:"description,omitempty"`
}

type Application struct {
	ID         string            `json:"id"`
	Job        Job               `json:"job"`
	Candidate  User              `json:"candidate"`
	Status     ApplicationStatus `json:"status"`
	ResumeText string            `json:"resume_text,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
}

type InterviewType string

const (
	InterviewPhone    InterviewType = "phone"
	InterviewVideo    InterviewType = "video"
	InterviewInPerson InterviewType = "in_person"
)

// Label renders "in_person" as "In Person".
func (t InterviewType) Label() string {
	words := strings.Fields(strings.ReplaceAll(string(t), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewCompleted   InterviewStatus = "completed"
	InterviewCancelled   InterviewStatus = "cancelled"
	InterviewRescheduled InterviewStatus = "rescheduled"
)

type Interview struct {
	ID          string          `json:"id"`
	Application Application     `json:"application"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Type        InterviewType   `json:"interview_type"`
	Location    string          `json:"location"`
	Notes       string          `json:"notes,omitempty"`
	Status      InterviewStatus `json:"status"`
}
