package notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"inboxpilot-backend/internal/connection/domain"

	"github.com/gin-gonic/gin"
)

type fakeStore struct {
	mu        sync.Mutex
	byEmail   map[string]*domain.ConnectedMailbox
	bySubID   map[string]*domain.ConnectedMailbox
	touched   []string
	findError error
}

func (f *fakeStore) FindByEmail(ctx context.Context, email string) (*domain.ConnectedMailbox, error) {
	if f.findError != nil {
		return nil, f.findError
	}
	return f.byEmail[email], nil
}

func (f *fakeStore) FindBySubscriptionID(ctx context.Context, id string) (*domain.ConnectedMailbox, error) {
	return f.bySubID[id], nil
}

func (f *fakeStore) TouchLastOn(ctx context.Context, email string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, email)
	return nil
}

type recordingDispatcher struct {
	events []Event
	err    error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, event Event) error {
	d.events = append(d.events, event)
	return d.err
}

func newStore() *fakeStore {
	gmailBox := &domain.ConnectedMailbox{Email: "sales@acme.test", OrgID: "org-1", Provider: domain.ProviderGoogle, IsActive: true}
	paused := &domain.ConnectedMailbox{Email: "paused@acme.test", OrgID: "org-1", Provider: domain.ProviderGoogle, IsActive: false}
	outlookBox := &domain.ConnectedMailbox{Email: "help@acme.test", OrgID: "org-2", Provider: domain.ProviderOutlook, SubscriptionID: "sub-1", IsActive: true}
	return &fakeStore{
		byEmail: map[string]*domain.ConnectedMailbox{
			gmailBox.Email:   gmailBox,
			paused.Email:     paused,
			outlookBox.Email: outlookBox,
		},
		bySubID: map[string]*domain.ConnectedMailbox{"sub-1": outlookBox},
	}
}

func TestHandleGmail(t *testing.T) {
	store := newStore()
	dispatcher := &recordingDispatcher{}
	intake := NewIntake(store, dispatcher)
	ctx := context.Background()

	if got := intake.HandleGmail(ctx, "Sales@Acme.test", "12345"); got != resultDispatched {
		t.Fatalf("expected dispatched, got %s", got)
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].Cursor != "12345" || dispatcher.events[0].OrgID != "org-1" {
		t.Errorf("unexpected events %+v", dispatcher.events)
	}
	if len(store.touched) != 1 {
		t.Errorf("expected last_on stamped once, got %v", store.touched)
	}

	if got := intake.HandleGmail(ctx, "paused@acme.test", "1"); got != resultInactive {
		t.Errorf("expected inactive, got %s", got)
	}
	if got := intake.HandleGmail(ctx, "nobody@acme.test", "1"); got != resultUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
	// an Outlook mailbox never answers to a Gmail notification
	if got := intake.HandleGmail(ctx, "help@acme.test", "1"); got != resultUnknown {
		t.Errorf("expected unknown for outlook mailbox, got %s", got)
	}
	if len(dispatcher.events) != 1 {
		t.Errorf("expected no further dispatches, got %d", len(dispatcher.events))
	}

	store.findError = errors.New("db down")
	if got := intake.HandleGmail(ctx, "sales@acme.test", "2"); got != resultError {
		t.Errorf("expected error, got %s", got)
	}
}

func TestHandleOutlookClientState(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	intake := NewIntake(newStore(), dispatcher)
	ctx := context.Background()

	if got := intake.HandleOutlook(ctx, "sub-1", "wrong", "secret"); got != resultRejected {
		t.Errorf("expected rejected, got %s", got)
	}
	if got := intake.HandleOutlook(ctx, "sub-1", "secret", "secret"); got != resultDispatched {
		t.Errorf("expected dispatched, got %s", got)
	}
	if got := intake.HandleOutlook(ctx, "sub-9", "secret", "secret"); got != resultUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].Cursor != "sub-1" {
		t.Errorf("unexpected events %+v", dispatcher.events)
	}
}

func TestServiceSkipsRedelivery(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	s := newService(nil, "projects/demo/topics/gmail-push", NewIntake(newStore(), dispatcher))
	if s.subName != "gmail-push-sub" {
		t.Errorf("unexpected subscription name %q", s.subName)
	}
	ctx := context.Background()

	msg := []byte(`{"emailAddress":"sales@acme.test","historyId":98765}`)
	if got := s.handleMessage(ctx, msg); got != resultDispatched {
		t.Fatalf("expected dispatched, got %s", got)
	}
	if got := s.handleMessage(ctx, msg); got != resultDuplicate {
		t.Errorf("expected duplicate, got %s", got)
	}
	if got := s.handleMessage(ctx, []byte(`not json`)); got != resultMalformed {
		t.Errorf("expected malformed, got %s", got)
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].Cursor != "98765" {
		t.Errorf("unexpected events %+v", dispatcher.events)
	}
}

func TestOutlookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dispatcher := &recordingDispatcher{}
	h := NewOutlookHandler(NewIntake(newStore(), dispatcher), "secret")
	r := gin.New()
	r.POST("/api/outlook/notifications", h.Notify)

	req := httptest.NewRequest(http.MethodPost, "/api/outlook/notifications?validationToken=abc%20123", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "abc 123" {
		t.Errorf("expected token echoed, got %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %q", ct)
	}

	body := `{"value":[{"subscriptionId":"sub-1","clientState":"secret","changeType":"created"}]}`
	req = httptest.NewRequest(http.MethodPost, "/api/outlook/notifications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}
	if len(dispatcher.events) != 1 {
		t.Errorf("expected one dispatch, got %d", len(dispatcher.events))
	}
}
