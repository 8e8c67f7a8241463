package notify

import (
	"time"

	"gorm.io/datatypes"
)

type Kind string

const (
	KindApplicationSubmitted     Kind = "application_submitted"
	KindApplicationStatusChanged Kind = "application_status_changed"
	KindNewApplication           Kind = "new_application"
	KindJobMatch                 Kind = "job_match"
	KindResumeViewed             Kind = "resume_viewed"
	KindInterviewScheduled       Kind = "interview_scheduled"
	KindInterviewCancelled       Kind = "interview_cancelled"
	KindInterviewRescheduled     Kind = "interview_rescheduled"
	KindJobExpiring              Kind = "job_expiring"
	KindSystem                   Kind = "system"
)

var kinds = []Kind{
	KindApplicationSubmitted,
	KindApplicationStatusChanged,
	KindNewApplication,
	KindJobMatch,
	KindResumeViewed,
	KindInterviewScheduled,
	KindInterviewCancelled,
	KindInterviewRescheduled,
	KindJobExpiring,
	KindSystem,
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Payload keeps the values a notification was created with so the email can
// be rendered later without reloading collaborators.
type Payload struct {
	RecipientEmail string     `json:"recipient_email,omitempty"`
	RecipientName  string     `json:"recipient_name,omitempty"`
	JobTitle       string     `json:"job_title,omitempty"`
	CompanyName    string     `json:"company_name,omitempty"`
	CandidateName  string     `json:"candidate_name,omitempty"`
	OldStatus      string     `json:"old_status,omitempty"`
	NewStatus      string     `json:"new_status,omitempty"`
	InterviewAt    *time.Time `json:"interview_at,omitempty"`
	InterviewType  string     `json:"interview_type,omitempty"`
	Location       string     `json:"location,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

type Notification struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	RecipientID   string                      `gorm:"size:64;not null;index:idx_notifications_recipient_read,priority:1" json:"recipient_id"`
	Kind          Kind                        `gorm:"size:32;not null;index" json:"kind"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Message       string                      `gorm:"type:text" json:"message"`
	Link          string                      `gorm:"size:500" json:"link,omitempty"`
	JobID         *string                     `gorm:"size:64" json:"job_id,omitempty"`
	ApplicationID *string                     `gorm:"size:64" json:"application_id,omitempty"`
	IsRead        bool                        `gorm:"not null;default:false;index:idx_notifications_recipient_read,priority:2" json:"is_read"`
	ReadAt        *time.Time                  `json:"read_at,omitempty"`
	IsEmailed     bool                        `gorm:"not null;default:false;index" json:"is_emailed"`
	EmailSentAt   *time.Time                  `json:"email_sent_at,omitempty"`
	ClaimedAt     *time.Time                  `gorm:"index" json:"-"`
	Payload       datatypes.JSONType[Payload] `json:"-"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
