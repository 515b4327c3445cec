package oauthtoken

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inboxpilot-backend/internal/connection/domain"

	"golang.org/x/oauth2"
)

func refreshServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","refresh_token":"r2","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{ClientID: "id", ClientSecret: "secret", Endpoint: oauth2.Endpoint{TokenURL: tokenURL}}
}

func TestSourceReportsRefreshedToken(t *testing.T) {
	srv := refreshServer(t)
	var saved []*oauth2.Token
	expired := &domain.Tokens{AccessToken: "stale", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour)}

	src := Source(context.Background(), testConfig(srv.URL), expired, func(tok *oauth2.Token) error {
		saved = append(saved, tok)
		return nil
	})
	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "fresh" {
		t.Errorf("expected refreshed token, got %q", tok.AccessToken)
	}
	if len(saved) != 1 || saved[0].AccessToken != "fresh" {
		t.Fatalf("expected one persisted token, got %v", saved)
	}

	// the refreshed token is cached, so nothing new is reported
	if _, err := src.Token(); err != nil {
		t.Fatalf("second Token failed: %v", err)
	}
	if len(saved) != 1 {
		t.Errorf("expected no further callbacks, got %d", len(saved))
	}
}

func TestSourceValidTokenSkipsCallback(t *testing.T) {
	called := false
	valid := &domain.Tokens{AccessToken: "live", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}
	src := Source(context.Background(), testConfig("http://127.0.0.1:0/unused"), valid, func(*oauth2.Token) error {
		called = true
		return nil
	})
	tok, err := src.Token()
	if err != nil || tok.AccessToken != "live" {
		t.Fatalf("expected stored token, got %v, %v", tok, err)
	}
	if called {
		t.Error("callback should not run without a refresh")
	}
}

func TestSourceCallbackErrorIsLogged(t *testing.T) {
	srv := refreshServer(t)
	expired := &domain.Tokens{AccessToken: "stale", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour)}
	src := Source(context.Background(), testConfig(srv.URL), expired, func(*oauth2.Token) error {
		return errors.New("db down")
	})
	if tok, err := src.Token(); err != nil || tok.AccessToken != "fresh" {
		t.Fatalf("a failed save must not fail the call, got %v, %v", tok, err)
	}
}
