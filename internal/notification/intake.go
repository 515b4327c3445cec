package notification

import (
	"context"
	"log"
	"strings"
	"time"

	"inboxpilot-backend/internal/connection/domain"
	"inboxpilot-backend/pkg/metrics"
)

// Event is one inbound-mail signal for a connected mailbox.
type Event struct {
	Provider   domain.Provider `json:"provider"`
	OrgID      string          `json:"org_id"`
	Email      string          `json:"email"`
	Cursor     string          `json:"cursor"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Dispatcher hands events to the reply pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// LogDispatcher only logs events. It is used when no pipeline is attached.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	log.Printf("[Intake] %s mail for %s (org %s, cursor %s)", event.Provider, event.Email, event.OrgID, event.Cursor)
	return nil
}

// MailboxStore is the part of the connected-mailbox repository the intake reads.
type MailboxStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.ConnectedMailbox, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.ConnectedMailbox, error)
	TouchLastOn(ctx context.Context, email string, at time.Time) error
}

// Result labels for push notification metrics.
const (
	resultDispatched = "dispatched"
	resultUnknown    = "unknown"
	resultInactive   = "inactive"
	resultRejected   = "rejected"
	resultDuplicate  = "duplicate"
	resultMalformed  = "malformed"
	resultError      = "error"
)

// Intake resolves push notifications to connected mailboxes and dispatches them.
type Intake struct {
	store      MailboxStore
	dispatcher Dispatcher
	now        func() time.Time
}

func NewIntake(store MailboxStore, dispatcher Dispatcher) *Intake {
	if dispatcher == nil {
		dispatcher = LogDispatcher{}
	}
	return &Intake{store: store, dispatcher: dispatcher, now: time.Now}
}

func (i *Intake) deliver(ctx context.Context, mailbox *domain.ConnectedMailbox, cursor string) string {
	if !mailbox.IsActive {
		return resultInactive
	}
	at := i.now()
	if err := i.store.TouchLastOn(ctx, mailbox.Email, at); err != nil {
		log.Printf("[Intake] Failed to stamp last_on for %s: %v", mailbox.Email, err)
	}
	event := Event{
		Provider:   mailbox.Provider,
		OrgID:      mailbox.OrgID,
		Email:      mailbox.Email,
		Cursor:     cursor,
		ReceivedAt: at,
	}
	if err := i.dispatcher.Dispatch(ctx, event); err != nil {
		log.Printf("[Intake] Dispatch failed for %s: %v", mailbox.Email, err)
		return resultError
	}
	return resultDispatched
}

// HandleGmail processes a Gmail watch notification for email.
func (i *Intake) HandleGmail(ctx context.Context, email, historyID string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	mailbox, err := i.store.FindByEmail(ctx, email)
	result := resultUnknown
	switch {
	case err != nil:
		log.Printf("[Intake] Error finding mailbox %s: %v", email, err)
		result = resultError
	case mailbox != nil && mailbox.Provider == domain.ProviderGoogle:
		result = i.deliver(ctx, mailbox, historyID)
	}
	metrics.PushNotification(string(domain.ProviderGoogle), result)
	return result
}

// HandleOutlook processes one Graph change notification.
func (i *Intake) HandleOutlook(ctx context.Context, subscriptionID, clientState, expectedState string) string {
	mailbox, err := i.store.FindBySubscriptionID(ctx, subscriptionID)
	result := resultUnknown
	switch {
	case err != nil:
		log.Printf("[Intake] Error finding subscription %s: %v", subscriptionID, err)
		result = resultError
	case mailbox == nil:
	case expectedState != "" && clientState != expectedState:
		log.Printf("[Intake] clientState mismatch for subscription %s", subscriptionID)
		result = resultRejected
	default:
		result = i.deliver(ctx, mailbox, subscriptionID)
	}
	metrics.PushNotification(string(domain.ProviderOutlook), result)
	return result
}
