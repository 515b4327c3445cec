package domain

import (
	"testing"
	"time"
)

func TestDeriveCancelAtPeriodEnd(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cancelAt := now.Add(10 * 24 * time.Hour).Unix()
	sub := &ProviderSubscription{
		Status:            "active",
		CancelAtPeriodEnd: true,
		CancelAt:          cancelAt,
		CurrentPeriodEnd:  cancelAt,
	}

	view, ok := Derive(sub, now)
	if !ok {
		t.Fatal("expected a view while the period is running")
	}
	if view.Status != StatusCanceled {
		t.Errorf("expected canceled, got %s", view.Status)
	}
	if view.EndsAt == nil || view.EndsAt.Unix() != cancelAt {
		t.Errorf("expected ends_at = cancel_at, got %v", view.EndsAt)
	}
	if !view.Active(now) {
		t.Error("canceled subscription should stay active until it ends")
	}
}

func TestDeriveElapsedPeriodIsAbsent(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sub := &ProviderSubscription{CancelAtPeriodEnd: true, CurrentPeriodEnd: now.Add(-time.Hour).Unix()}
	if _, ok := Derive(sub, now); ok {
		t.Error("expected no view once the final period elapsed")
	}
}

func TestDeriveStatuses(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(24 * time.Hour).Unix()

	tests := []struct {
		name string
		sub  ProviderSubscription
		want SubscriptionStatus
	}{
		{"active", ProviderSubscription{Status: "active", CurrentPeriodEnd: end}, StatusActive},
		{"paused", ProviderSubscription{Status: "active", PauseBehavior: "mark_uncollectible"}, StatusPaused},
		{"paused keep_as_draft is active", ProviderSubscription{Status: "active", PauseBehavior: "keep_as_draft"}, StatusActive},
		{"canceled status", ProviderSubscription{Status: "canceled"}, StatusCanceled},
		{"canceled_at wins over pause", ProviderSubscription{Status: "active", CanceledAt: now.Unix(), PauseBehavior: "mark_uncollectible"}, StatusCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, ok := Derive(&tt.sub, now)
			if !ok {
				t.Fatal("expected a view")
			}
			if view.Status != tt.want {
				t.Errorf("got %s, want %s", view.Status, tt.want)
			}
		})
	}
}

func TestDeriveEndsAtFallsBackToCanceledAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	canceled := now.Add(-time.Hour).Unix()
	view, _ := Derive(&ProviderSubscription{Status: "canceled", CanceledAt: canceled}, now)
	if view.EndsAt == nil || view.EndsAt.Unix() != canceled {
		t.Errorf("expected ends_at = canceled_at, got %v", view.EndsAt)
	}
	if view.Active(now) {
		t.Error("subscription that already ended must not be active")
	}
}

func TestPriceCatalog(t *testing.T) {
	catalog := PriceCatalog{"price_std_m": PlanStandard}
	if got := catalog.Plan("price_std_m"); got.ConnectedLimit != 10 {
		t.Errorf("expected standard limit 10, got %d", got.ConnectedLimit)
	}
	if got := catalog.Plan("price_unknown"); got.Name != PlanFree {
		t.Errorf("expected free for unknown price, got %s", got.Name)
	}
	if got := catalog.Plan(""); got.ConnectedLimit != 1 {
		t.Errorf("expected free limit 1, got %d", got.ConnectedLimit)
	}
}
