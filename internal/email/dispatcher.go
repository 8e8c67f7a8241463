package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/apiclient"
	"github.com/spigell/job-portal/internal/utils"
)

const (
	DefaultBaseURL   = "https://api.resend.com"
	DefaultFromEmail = "onboarding@resend.dev"
	DefaultFromName  = "Job Portal"
	DefaultTimeout   = 10 * time.Second

	sendPath     = "emails"
	previewLimit = 120
)

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	// TestRecipient redirects every message to one inbox.
	TestRecipient string
	Timeout       time.Duration
}

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Dispatcher delivers transactional mail through the Resend HTTP API.
type Dispatcher struct {
	cfg    Config
	api    *apiclient.Client
	logger *zap.Logger
}

func NewDispatcher(cfg Config, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = DefaultFromEmail
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Dispatcher{
		cfg:    cfg,
		api:    apiclient.New(cfg.BaseURL, cfg.APIKey, cfg.Timeout, log),
		logger: log,
	}
}

// Enabled is false when no api key is configured. Send still logs and
// returns false in that case.
func (d *Dispatcher) Enabled() bool {
	return strings.TrimSpace(d.cfg.APIKey) != ""
}

// Send delivers one message. Failures are logged and reported as false.
func (d *Dispatcher) Send(ctx context.Context, msg Message) bool {
	log := d.logger.With(zap.String("to", msg.To), zap.String("subject", msg.Subject))

	if !d.Enabled() {
		log.Warn("email api key is not configured, message dropped")
		return false
	}

	to, subject := d.route(msg)
	req := sendRequest{
		From:    fmt.Sprintf("%s <%s>", d.cfg.FromName, d.cfg.FromEmail),
		To:      []string{to},
		Subject: subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	var resp sendResponse
	if err := d.api.PostJSON(ctx, sendPath, req, &resp); err != nil {
		log.Error("send email failed", zap.Error(err))
		return false
	}

	log.Info("email sent",
		zap.String("delivered_to", to),
		zap.String("email_id", resp.ID),
		zap.String("preview", utils.TruncateForLog(msg.Text, previewLimit)),
	)

	return true
}

func (d *Dispatcher) route(msg Message) (string, string) {
	if d.cfg.TestRecipient == "" {
		return msg.To, msg.Subject
	}
	return d.cfg.TestRecipient, fmt.Sprintf("[For: %s] %s", msg.To, msg.Subject)
}
