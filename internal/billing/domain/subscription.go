package domain

import "time"

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPaused   SubscriptionStatus = "paused"
	StatusCanceled SubscriptionStatus = "canceled"
)

// OrgSubscription links an organization to its Stripe subscription.
type OrgSubscription struct {
	OrgID          string    `json:"org_id" gorm:"primaryKey"`
	SubscriptionID string    `json:"subscription_id" gorm:"uniqueIndex;not null"`
	CustomerID     string    `json:"customer_id"`
	PriceID        string    `json:"price_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (OrgSubscription) TableName() string {
	return "subscriptions"
}

// WebhookEvent is a Stripe event stored verbatim on receipt.
type WebhookEvent struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	EventID         string    `json:"event_id" gorm:"uniqueIndex;not null"`
	EventName       string    `json:"event_name" gorm:"not null"`
	Body            string    `json:"body" gorm:"type:text;not null"`
	Processed       bool      `json:"processed" gorm:"not null"`
	ProcessingError string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProviderSubscription is the subset of a Stripe subscription the mirror reads.
// Timestamps are unix seconds, zero when unset.
type ProviderSubscription struct {
	ID                string
	Status            string
	CanceledAt        int64
	CancelAt          int64
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  int64
	PauseBehavior     string
	CustomerID        string
	PaymentMethodID   string
	PriceID           string
	Interval          string
}

type PaymentMethod struct {
	Kind  string `json:"kind"` // card or bank
	Last4 string `json:"last4"`
	Brand string `json:"brand"` // card brand or bank name
}

// SubscriptionView is what the dashboard shows for an organization's plan.
type SubscriptionView struct {
	Status        SubscriptionStatus `json:"status"`
	Plan          string             `json:"plan"`
	Interval      string             `json:"interval,omitempty"`
	EndsAt        *time.Time         `json:"ends_at"`
	RenewsAt      *time.Time         `json:"renews_at"`
	PaymentMethod *PaymentMethod     `json:"payment_method"`
	PortalURL     string             `json:"portal_url"`
}

// Active reports whether the subscription still grants its plan at now.
// A canceled subscription stays usable until it ends.
func (v *SubscriptionView) Active(now time.Time) bool {
	if v == nil {
		return false
	}
	switch v.Status {
	case StatusActive:
		return true
	case StatusCanceled:
		return v.EndsAt != nil && v.EndsAt.After(now)
	}
	return false
}

const pauseMarkUncollectible = "mark_uncollectible"

// Derive computes the dashboard status of sub. ok is false when the
// subscription ran to the end of a period it was set to cancel at.
func Derive(sub *ProviderSubscription, now time.Time) (view SubscriptionView, ok bool) {
	if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd > 0 && !now.Before(time.Unix(sub.CurrentPeriodEnd, 0)) {
		return SubscriptionView{}, false
	}

	switch {
	case sub.Status == "canceled" || sub.CanceledAt > 0 || sub.CancelAtPeriodEnd:
		view.Status = StatusCanceled
	case sub.PauseBehavior == pauseMarkUncollectible:
		view.Status = StatusPaused
	default:
		view.Status = StatusActive
	}

	if sub.CancelAtPeriodEnd && sub.CancelAt > 0 {
		view.EndsAt = unixPtr(sub.CancelAt)
	} else if sub.CanceledAt > 0 {
		view.EndsAt = unixPtr(sub.CanceledAt)
	}
	if sub.CurrentPeriodEnd > 0 {
		view.RenewsAt = unixPtr(sub.CurrentPeriodEnd)
	}
	view.Interval = sub.Interval
	return view, true
}

func unixPtr(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}
