package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/spigell/job-portal/internal/email"
	"github.com/spigell/job-portal/internal/logger"
	"github.com/spigell/job-portal/internal/portal"
	"github.com/spigell/job-portal/internal/utils"
)

const (
	DashboardLink = "/dashboard"

	scheduledLayout = "January 02, 2006 at 03:04 PM"
	cancelledLayout = "January 02, 2006"

	// DefaultClaimTTL outlives one email send including retries of the
	// transport.
	DefaultClaimTTL = time.Minute
)

type delivery int

const (
	deliveryFailed delivery = iota
	deliverySent
	// deliveryBusy means another sender holds the claim on the row.
	deliveryBusy
)

// Sender delivers a rendered email. It reports false on any failure.
type Sender interface {
	Send(ctx context.Context, msg email.Message) bool
}

type Options struct {
	FrontendURL string
	// SweepPause is the pause between two emails of one SendPending run.
	SweepPause time.Duration
	// ClaimTTL is how long a sender owns a row before another sender may
	// take it over.
	ClaimTTL time.Duration
}

// Spec describes one notification to create.
type Spec struct {
	Recipient     portal.User
	Kind          Kind
	Title         string
	Message       string
	Link          string
	JobID         string
	ApplicationID string
	Payload       Payload
	SendEmail     bool
}

type SweepReport struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Notifier turns domain transitions into stored notifications and emails.
// Callers pass the state before and after the write; the notifier never
// reads collaborators itself.
type Notifier struct {
	store  *Store
	sender Sender
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	wait   func(context.Context, time.Duration) error
}

func New(store *Store, sender Sender, opts Options, log *zap.Logger) *Notifier {
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = DefaultClaimTTL
	}
	return &Notifier{
		store:  store,
		sender: sender,
		opts:   opts,
		logger: logger.WithFields(log).Named("notify"),
		now:    time.Now,
		wait:   utils.WaitFor,
	}
}

// ApplicationCreated notifies the candidate and the job's recruiter. Both
// notifications are attempted even if the first one fails.
func (n *Notifier) ApplicationCreated(ctx context.Context, app portal.Application) error {
	job := app.Job
	candidateName := app.Candidate.DisplayName()

	_, candidateErr := n.Notify(ctx, Spec{
		Recipient:     app.Candidate,
		Kind:          KindApplicationSubmitted,
		Title:         "Application Submitted Successfully",
		Message:       fmt.Sprintf("Your application for %s has been submitted successfully!", job.Title),
		JobID:         job.ID,
		ApplicationID: app.ID,
		Payload:       Payload{JobTitle: job.Title, CompanyName: job.CompanyName},
		SendEmail:     true,
	})
	if candidateErr != nil {
		candidateErr = fmt.Errorf("candidate notification: %w", candidateErr)
	}

	_, recruiterErr := n.Notify(ctx, Spec{
		Recipient:     job.Recruiter,
		Kind:          KindNewApplication,
		Title:         "New Application Received",
		Message:       fmt.Sprintf("New application: %s applied for %s", candidateName, job.Title),
		JobID:         job.ID,
		ApplicationID: app.ID,
		Payload:       Payload{JobTitle: job.Title, CompanyName: job.CompanyName, CandidateName: candidateName},
		SendEmail:     true,
	})
	if recruiterErr != nil {
		recruiterErr = fmt.Errorf("recruiter notification: %w", recruiterErr)
	}

	return errors.Join(candidateErr, recruiterErr)
}

// ApplicationStatusChanged notifies the candidate when a previously set
// status moved to a different value. It returns nil when nothing fired.
func (n *Notifier) ApplicationStatusChanged(ctx context.Context, before, after portal.Application) (*Notification, error) {
	if before.Status == "" || before.Status == after.Status {
		return nil, nil
	}

	job := after.Job
	return n.Notify(ctx, Spec{
		Recipient:     after.Candidate,
		Kind:          KindApplicationStatusChanged,
		Title:         "Application Status Updated",
		Message:       fmt.Sprintf("Your application for %s status changed to %s", job.Title, after.Status.Label()),
		JobID:         job.ID,
		ApplicationID: after.ID,
		Payload: Payload{
			JobTitle:    job.Title,
			CompanyName: job.CompanyName,
			OldStatus:   before.Status.Label(),
			NewStatus:   after.Status.Label(),
		},
		SendEmail: true,
	})
}

// InterviewCreated stores the scheduled notification and sends the
// interview email with the full details.
func (n *Notifier) InterviewCreated(ctx context.Context, iv portal.Interview) (*Notification, error) {
	app := iv.Application
	at := iv.ScheduledAt

	return n.Notify(ctx, Spec{
		Recipient:     app.Candidate,
		Kind:          KindInterviewScheduled,
		Title:         "Interview Scheduled",
		Message:       fmt.Sprintf("Interview scheduled for %s on %s", app.Job.Title, at.Format(scheduledLayout)),
		JobID:         app.Job.ID,
		ApplicationID: app.ID,
		Payload: Payload{
			JobTitle:      app.Job.Title,
			CompanyName:   app.Job.CompanyName,
			InterviewAt:   &at,
			InterviewType: iv.Type.Label(),
			Location:      iv.Location,
			Notes:         iv.Notes,
		},
		SendEmail: true,
	})
}

// InterviewStatusChanged only reacts to a transition into cancelled.
func (n *Notifier) InterviewStatusChanged(ctx context.Context, before, after portal.Interview) (*Notification, error) {
	if before.Status == "" || before.Status == after.Status || after.Status != portal.InterviewCancelled {
		return nil, nil
	}

	app := after.Application
	at := after.ScheduledAt

	return n.Notify(ctx, Spec{
		Recipient:     app.Candidate,
		Kind:          KindInterviewCancelled,
		Title:         "Interview Cancelled",
		Message:       fmt.Sprintf("Your interview for %s scheduled on %s has been cancelled", app.Job.Title, at.Format(cancelledLayout)),
		JobID:         app.Job.ID,
		ApplicationID: app.ID,
		Payload: Payload{
			JobTitle:      app.Job.Title,
			CompanyName:   app.Job.CompanyName,
			InterviewAt:   &at,
			InterviewType: after.Type.Label(),
			Location:      after.Location,
		},
		SendEmail: true,
	})
}

// Notify stores a notification and, when asked, emails it. An email failure
// is logged and leaves the row pending for the sweep.
func (n *Notifier) Notify(ctx context.Context, spec Spec) (*Notification, error) {
	if spec.Recipient.ID == "" {
		return nil, errors.New("notification recipient is required")
	}

	payload := spec.Payload
	payload.RecipientEmail = spec.Recipient.Email
	payload.RecipientName = spec.Recipient.DisplayName()

	link := spec.Link
	if link == "" {
		link = DashboardLink
	}

	row := &Notification{
		RecipientID:   spec.Recipient.ID,
		Kind:          spec.Kind,
		Title:         spec.Title,
		Message:       spec.Message,
		Link:          link,
		JobID:         optional(spec.JobID),
		ApplicationID: optional(spec.ApplicationID),
		Payload:       datatypes.NewJSONType(payload),
	}

	if err := n.store.Create(ctx, row); err != nil {
		n.logger.Error("create notification failed",
			zap.String(logger.FieldRecipient, spec.Recipient.ID),
			zap.String("kind", string(spec.Kind)),
			zap.Error(err),
		)
		return nil, err
	}

	n.logger.Info("notification created",
		zap.Uint(logger.FieldNotification, row.ID),
		zap.String(logger.FieldRecipient, row.RecipientID),
		zap.String("kind", string(row.Kind)),
	)

	if spec.SendEmail {
		if n.deliver(ctx, row) == deliverySent {
			// refresh the flags the conditional update wrote
			if fresh, err := n.store.Get(ctx, row.ID); err == nil {
				row = fresh
			}
		}
	}

	return row, nil
}

// SendPending emails stored notifications that have a template and were
// never emailed.
func (n *Notifier) SendPending(ctx context.Context, limit int) (SweepReport, error) {
	var report SweepReport

	rows, err := n.store.Pending(ctx, limit, TemplatedKinds()...)
	if err != nil {
		return report, err
	}

	report.Scanned = len(rows)
	for i := range rows {
		if i > 0 {
			if err := n.wait(ctx, n.opts.SweepPause); err != nil {
				return report, err
			}
		}

		row := &rows[i]
		if row.Payload.Data().RecipientEmail == "" {
			report.Skipped++
			n.logger.Warn("notification has no recipient email, skipped",
				zap.Uint(logger.FieldNotification, row.ID),
			)
			continue
		}

		switch n.deliver(ctx, row) {
		case deliverySent:
			report.Sent++
		case deliveryBusy:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	n.logger.Info("pending notifications processed",
		zap.Int("scanned", report.Scanned),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)

	return report, nil
}

// TemplatedKinds lists the notification kinds that carry an email.
func TemplatedKinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for _, k := range kinds {
		if email.Templated(string(k)) {
			out = append(out, k)
		}
	}
	return out
}

// deliver claims the row, sends its email and marks it emailed. A failed
// send releases the claim so the next sweep retries it.
func (n *Notifier) deliver(ctx context.Context, row *Notification) delivery {
	log := n.logger.With(
		zap.Uint(logger.FieldNotification, row.ID),
		zap.String("kind", string(row.Kind)),
	)

	if n.sender == nil {
		log.Warn("email sender is not configured")
		return deliveryFailed
	}

	if !email.Templated(string(row.Kind)) {
		log.Debug("no email template for notification kind")
		return deliveryFailed
	}

	payload := row.Payload.Data()
	rendered, err := email.Render(string(row.Kind), n.emailData(payload))
	if err != nil {
		log.Error("render notification email failed", zap.Error(err))
		return deliveryFailed
	}

	claimed, err := n.store.Claim(ctx, row.ID, n.now().UTC(), n.opts.ClaimTTL)
	if err != nil {
		log.Error("claim notification failed", zap.Error(err))
		return deliveryFailed
	}
	if !claimed {
		log.Debug("notification is emailed or being emailed by another sender")
		return deliveryBusy
	}

	if !n.sender.Send(ctx, email.Message{
		To:      payload.RecipientEmail,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}) {
		log.Warn("notification email not sent")
		if err := n.store.Release(context.WithoutCancel(ctx), row.ID); err != nil {
			log.Error("release notification claim failed", zap.Error(err))
		}
		return deliveryFailed
	}

	marked, err := n.store.MarkEmailed(context.WithoutCancel(ctx), row.ID, n.now().UTC())
	if err != nil {
		log.Error("mark notification emailed failed", zap.Error(err))
		return deliverySent
	}
	if !marked {
		log.Debug("notification was already marked emailed")
	}

	return deliverySent
}

func (n *Notifier) emailData(p Payload) email.Data {
	data := email.Data{
		RecipientName: p.RecipientName,
		JobTitle:      p.JobTitle,
		CompanyName:   p.CompanyName,
		CandidateName: p.CandidateName,
		OldStatus:     p.OldStatus,
		NewStatus:     p.NewStatus,
		InterviewType: p.InterviewType,
		Location:      p.Location,
		Notes:         p.Notes,
		DashboardURL:  email.DashboardURL(n.opts.FrontendURL),
	}
	if p.InterviewAt != nil {
		data.InterviewAt = *p.InterviewAt
	}
	return data
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
