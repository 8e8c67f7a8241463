package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPostJSONSendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "secret", time.Second, zap.NewNop())

	var out struct {
		ID string `json:"id"`
	}
	if err := c.PostJSON(context.Background(), "/emails", map[string]string{"to": "a@b.c"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotPath != "/emails" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotBody["to"] != "a@b.c" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if out.ID != "abc" {
		t.Fatalf("expected decoded id, got %q", out.ID)
	}
}

func TestPostJSONCustomAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("bearer header should not be set")
		}
		if r.Header.Get("x-api-key") != "k" || r.Header.Get("X-Extra") != "1" {
			t.Errorf("unexpected headers: %v", r.Header)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second, nil)
	c.Auth = func(req *http.Request, token string) { req.Header.Set("x-api-key", token) }
	c.Headers = map[string]string{"X-Extra": "1"}

	if err := c.PostJSON(context.Background(), "messages", struct{}{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPostJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(srv.URL, "", time.Second, nil).PostJSON(context.Background(), "x", struct{}{}, nil)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected code: %d", statusErr.Code)
	}
	if statusErr.Body != "quota exceeded" {
		t.Fatalf("unexpected body: %q", statusErr.Body)
	}
}
