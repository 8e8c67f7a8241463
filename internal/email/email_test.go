package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSendPostsResendPayload(t *testing.T) {
	var gotAuth, gotPath string
	var got sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(Config{APIKey: "re_key", BaseURL: srv.URL}, zap.NewNop())

	ok := d.Send(context.Background(), Message{To: "ann@example.com", Subject: "Hello", HTML: "<p>hi</p>", Text: "hi"})
	if !ok {
		t.Fatalf("expected send to succeed")
	}
	if gotAuth != "Bearer re_key" {
		t.Fatalf("unexpected authorization: %q", gotAuth)
	}
	if gotPath != "/emails" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if got.From != "Job Portal <onboarding@resend.dev>" {
		t.Fatalf("unexpected from: %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "ann@example.com" || got.Subject != "Hello" || got.Text != "hi" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestSendTestRecipientOverride(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{APIKey: "k", BaseURL: srv.URL, TestRecipient: "qa@example.com"}, nil)

	if !d.Send(context.Background(), Message{To: "bob@example.com", Subject: "Interview Scheduled - Go Dev"}) {
		t.Fatalf("expected send to succeed")
	}
	if got.To[0] != "qa@example.com" {
		t.Fatalf("expected redirect to test recipient, got %v", got.To)
	}
	if got.Subject != "[For: bob@example.com] Interview Scheduled - Go Dev" {
		t.Fatalf("unexpected subject: %q", got.Subject)
	}
}

func TestSendFailures(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		d := NewDispatcher(Config{}, zap.New(core))

		if d.Send(context.Background(), Message{To: "a@b.c"}) {
			t.Fatalf("expected false without api key")
		}
		if logs.FilterMessage("email api key is not configured, message dropped").Len() != 1 {
			t.Fatalf("expected warning, got %v", logs.All())
		}
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		core, logs := observer.New(zapcore.DebugLevel)
		d := NewDispatcher(Config{APIKey: "k", BaseURL: srv.URL}, zap.New(core))

		if d.Send(context.Background(), Message{To: "a@b.c"}) {
			t.Fatalf("expected false on 422")
		}
		if logs.FilterMessage("send email failed").Len() != 1 {
			t.Fatalf("expected error log, got %v", logs.All())
		}
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		d := NewDispatcher(Config{APIKey: "k", BaseURL: url, Timeout: time.Second}, nil)
		if d.Send(context.Background(), Message{To: "a@b.c"}) {
			t.Fatalf("expected false when server is gone")
		}
	})
}

func TestRenderTemplates(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)
	data := Data{
		RecipientName: "Ann",
		JobTitle:      "Go Developer",
		CompanyName:   "Acme",
		CandidateName: "Bob",
		NewStatus:     "Under Review",
		InterviewAt:   at,
		InterviewType: "In Person",
		Location:      "Office 3",
		Notes:         "Bring ID",
		DashboardURL:  DashboardURL("http://localhost:3000/"),
	}

	cases := []struct {
		kind    string
		subject string
		want    []string
	}{
		{"application_submitted", "Application Submitted - Go Developer", []string{"has been submitted successfully"}},
		{"application_status_changed", "Application Status Update - Go Developer", []string{"Under Review"}},
		{"new_application", "New Application Received - Go Developer", []string{"Bob"}},
		{"job_match", "New Job Match: Go Developer", []string{"Acme"}},
		{"interview_scheduled", "Interview Scheduled - Go Developer", []string{"Friday, March 14, 2025", "03:30 PM", "In Person", "Office 3", "Bring ID"}},
		{"interview_cancelled", "Interview Cancelled - Go Developer", []string{"has been cancelled", "Friday, March 14, 2025"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.kind, func(t *testing.T) {
			t.Parallel()

			if !Templated(tc.kind) {
				t.Fatalf("expected %s to be templated", tc.kind)
			}

			out, err := Render(tc.kind, data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if out.Subject != tc.subject {
				t.Fatalf("unexpected subject: %q", out.Subject)
			}
			for _, want := range append(tc.want, "Hi Ann", "http://localhost:3000/dashboard") {
				if !strings.Contains(out.HTML, want) {
					t.Fatalf("html missing %q", want)
				}
				if !strings.Contains(out.Text, want) {
					t.Fatalf("text missing %q", want)
				}
			}
		})
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	out, err := Render("new_application", Data{CandidateName: "<script>x</script>", JobTitle: "Dev"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.HTML, "<script>") {
		t.Fatalf("candidate name was not escaped: %s", out.HTML)
	}
	if !strings.Contains(out.Text, "<script>x</script>") {
		t.Fatalf("text body should keep the raw name")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if Templated("resume_viewed") {
		t.Fatalf("resume_viewed has no template")
	}
	if _, err := Render("resume_viewed", Data{}); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}
