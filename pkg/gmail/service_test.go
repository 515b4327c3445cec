package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"inboxpilot-backend/internal/connection/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewService("client-id", "client-secret", "http://localhost/api/gmail/authorize", "projects/p/topics/inbox")
	s.endpoint = server.URL + "/"
	return s
}

func validTokens() *domain.Tokens {
	return &domain.Tokens{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
}

func TestAuthCodeURLRequestsOfflineConsent(t *testing.T) {
	s := NewService("client-id", "secret", "http://localhost/cb", "")
	raw := s.AuthCodeURL(`{"orgId":"org-1"}`)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	q := u.Query()
	if q.Get("access_type") != "offline" {
		t.Errorf("expected access_type=offline, got %q", q.Get("access_type"))
	}
	if q.Get("prompt") != "consent" {
		t.Errorf("expected prompt=consent, got %q", q.Get("prompt"))
	}
	if q.Get("state") != `{"orgId":"org-1"}` {
		t.Errorf("state not carried verbatim: %q", q.Get("state"))
	}
}

func TestSubscribeReturnsCursorAsString(t *testing.T) {
	var gotTopic string
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/watch") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer access" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var body struct {
			TopicName string   `json:"topicName"`
			LabelIds  []string `json:"labelIds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotTopic = body.TopicName
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"historyId":"98765","expiration":"1700000000000"}`))
	})

	sub, err := s.Subscribe(context.Background(), validTokens(), nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if gotTopic != "projects/p/topics/inbox" {
		t.Errorf("unexpected topic %q", gotTopic)
	}
	if sub.Cursor != "98765" {
		t.Errorf("expected cursor 98765, got %q", sub.Cursor)
	}
	if sub.Expiration != 1700000000000 {
		t.Errorf("expected expiration millis, got %d", sub.Expiration)
	}
}

func TestSubscribeProviderError(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"topic not permitted"}}`))
	})

	if _, err := s.Subscribe(context.Background(), validTokens(), nil); err == nil {
		t.Fatal("expected error from watch")
	}
}

func TestSubscribeWithoutTopic(t *testing.T) {
	s := NewService("id", "secret", "", "")
	if _, err := s.Subscribe(context.Background(), validTokens(), nil); err == nil {
		t.Fatal("expected error when no topic is configured")
	}
}

func TestUnsubscribeCallsStop(t *testing.T) {
	called := false
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/users/me/stop") {
			called = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.NotFound(w, r)
	})

	if err := s.Unsubscribe(context.Background(), validTokens(), "123", nil); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if !called {
		t.Error("expected stop endpoint to be called")
	}
}

func TestTopicPath(t *testing.T) {
	cases := map[[2]string]string{
		{"proj", "inbox"}:                      "projects/proj/topics/inbox",
		{"proj", "projects/other/topics/mail"}: "projects/other/topics/mail",
		{"", "inbox"}:                          "inbox",
	}
	for in, want := range cases {
		if got := TopicPath(in[0], in[1]); got != want {
			t.Errorf("TopicPath(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
