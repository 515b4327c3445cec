package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"inboxpilot-backend/internal/billing/domain"
	"inboxpilot-backend/internal/billing/repository"
	"inboxpilot-backend/pkg/apperror"

	"github.com/google/uuid"
)

type BillingUsecase interface {
	// GetSubscription returns nil when the organization has no live
	// subscription or when anything about fetching it fails.
	GetSubscription(ctx context.Context, orgID string) *domain.SubscriptionView
	CurrentPlan(ctx context.Context, orgID string) domain.Plan
	CanConnect(ctx context.Context, orgID string, connected int64) (bool, error)
	MonthlyEmailQuota(ctx context.Context, orgID string) int64
	MonthlyTokenQuota(ctx context.Context, orgID string) int64
	LinkSubscription(ctx context.Context, orgID, subscriptionID string) (*domain.OrgSubscription, error)
	RecordWebhook(ctx context.Context, payload []byte, signature string) error
}

type billingUsecase struct {
	repo      repository.BillingRepository
	provider  domain.Provider
	catalog   domain.PriceCatalog
	returnURL string
	now       func() time.Time
}

// NewBillingUsecase creates the billing mirror. provider may be nil when no
// Stripe key is configured, in which case every organization is on the free plan.
func NewBillingUsecase(repo repository.BillingRepository, provider domain.Provider, catalog domain.PriceCatalog, returnURL string) BillingUsecase {
	return &billingUsecase{
		repo:      repo,
		provider:  provider,
		catalog:   catalog,
		returnURL: returnURL,
		now:       time.Now,
	}
}

func (u *billingUsecase) GetSubscription(ctx context.Context, orgID string) *domain.SubscriptionView {
	view, err := u.subscription(ctx, orgID)
	if err != nil {
		log.Printf("[Billing] Failed to load subscription for org %s: %v", orgID, err)
		return nil
	}
	return view
}

func (u *billingUsecase) subscription(ctx context.Context, orgID string) (*domain.SubscriptionView, error) {
	if u.provider == nil {
		return nil, nil
	}
	row, err := u.repo.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	sub, err := u.provider.GetSubscription(ctx, row.SubscriptionID)
	if err != nil {
		return nil, err
	}
	view, ok := domain.Derive(sub, u.now())
	if !ok {
		return nil, nil
	}

	priceID := sub.PriceID
	if priceID == "" {
		priceID = row.PriceID
	}
	view.Plan = u.catalog.Plan(priceID).Name

	if sub.PaymentMethodID != "" {
		pm, err := u.provider.GetPaymentMethod(ctx, sub.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		view.PaymentMethod = pm
	}

	customerID := sub.CustomerID
	if customerID == "" {
		customerID = row.CustomerID
	}
	portal, err := u.provider.PortalURL(ctx, customerID, u.returnURL)
	if err != nil {
		return nil, err
	}
	view.PortalURL = portal
	return &view, nil
}

func (u *billingUsecase) CurrentPlan(ctx context.Context, orgID string) domain.Plan {
	view := u.GetSubscription(ctx, orgID)
	if !view.Active(u.now()) {
		return domain.PlanByName(domain.PlanFree)
	}
	return domain.PlanByName(view.Plan)
}

// CanConnect reports whether one more mailbox fits the organization's plan.
func (u *billingUsecase) CanConnect(ctx context.Context, orgID string, connected int64) (bool, error) {
	plan := u.CurrentPlan(ctx, orgID)
	return connected < plan.ConnectedLimit, nil
}

func (u *billingUsecase) MonthlyEmailQuota(ctx context.Context, orgID string) int64 {
	return u.CurrentPlan(ctx, orgID).MonthlyEmails
}

func (u *billingUsecase) MonthlyTokenQuota(ctx context.Context, orgID string) int64 {
	return u.CurrentPlan(ctx, orgID).MonthlyTokens
}

// LinkSubscription attaches a Stripe subscription to an organization, copying
// its customer and price so the plan can be resolved without Stripe.
func (u *billingUsecase) LinkSubscription(ctx context.Context, orgID, subscriptionID string) (*domain.OrgSubscription, error) {
	if orgID == "" || subscriptionID == "" {
		return nil, apperror.Validation("organization and subscription id are required")
	}
	if u.provider == nil {
		return nil, fmt.Errorf("billing provider is not configured")
	}
	sub, err := u.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	row := &domain.OrgSubscription{
		OrgID:          orgID,
		SubscriptionID: subscriptionID,
		CustomerID:     sub.CustomerID,
		PriceID:        sub.PriceID,
	}
	if err := u.repo.Save(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	log.Printf("[Billing] Linked subscription %s to org %s", subscriptionID, orgID)
	return row, nil
}

// RecordWebhook verifies and stores a Stripe event. Events are not processed here.
func (u *billingUsecase) RecordWebhook(ctx context.Context, payload []byte, signature string) error {
	if u.provider == nil {
		return fmt.Errorf("billing provider is not configured")
	}
	event, err := u.provider.VerifyEvent(payload, signature)
	if err != nil {
		return apperror.Validation(fmt.Sprintf("invalid webhook signature: %v", err))
	}
	created, err := u.repo.CreateEvent(ctx, &domain.WebhookEvent{
		ID:        uuid.New().String(),
		EventID:   event.ID,
		EventName: event.Type,
		Body:      string(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to store webhook event: %w", err)
	}
	if !created {
		log.Printf("[Billing] Duplicate webhook event %s ignored", event.ID)
	}
	return nil
}
