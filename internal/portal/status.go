package portal

import "fmt"

type ApplicationStatus string

const (
	StatusApplied       ApplicationStatus = "applied"
	StatusUnderReview   ApplicationStatus = "under_review"
	StatusShortlisted   ApplicationStatus = "shortlisted"
	StatusOARound       ApplicationStatus = "oa_round"
	StatusTechRound     ApplicationStatus = "tech_round"
	StatusHRRound       ApplicationStatus = "hr_round"
	StatusOfferReceived ApplicationStatus = "offer_received"
	StatusRejected      ApplicationStatus = "rejected"
	StatusAccepted      ApplicationStatus = "accepted"
)

var statusLabels = map[ApplicationStatus]string{
	StatusApplied:       "Applied",
	StatusUnderReview:   "Under Review",
	StatusShortlisted:   "Shortlisted",
	StatusOARound:       "OA Round",
	StatusTechRound:     "Tech Round",
	StatusHRRound:       "HR Round",
	StatusOfferReceived: "Offer Received",
	StatusRejected:      "Rejected",
	StatusAccepted:      "Accepted",
}

func (s ApplicationStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable form used in notifications and emails.
func (s ApplicationStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	status := ApplicationStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown application status %q", s)
	}
	return status, nil
}

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewCompleted, InterviewCancelled, InterviewRescheduled:
		return true
	}
	return false
}

func (t InterviewType) Valid() bool {
	switch t {
	case InterviewPhone, InterviewVideo, InterviewInPerson:
		return true
	}
	return false
}
