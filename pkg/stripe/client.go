package stripe

import (
	"context"
	"fmt"

	"inboxpilot-backend/internal/billing/domain"
	"inboxpilot-backend/pkg/metrics"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Client reads subscriptions and billing details from Stripe.
type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	return &Client{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	metrics.ProviderCall("stripe", "subscription_get", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return toProviderSubscription(sub), nil
}

func toProviderSubscription(sub *stripe.Subscription) *domain.ProviderSubscription {
	out := &domain.ProviderSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CanceledAt:        sub.CanceledAt,
		CancelAt:          sub.CancelAt,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
	}
	if sub.PauseCollection != nil {
		out.PauseBehavior = string(sub.PauseCollection.Behavior)
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.DefaultPaymentMethod != nil {
		out.PaymentMethodID = sub.DefaultPaymentMethod.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		out.PriceID = price.ID
		if price.Recurring != nil {
			out.Interval = string(price.Recurring.Interval)
		}
	}
	return out
}

func (c *Client) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*domain.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx
	pm, err := c.api.PaymentMethods.Get(paymentMethodID, params)
	metrics.ProviderCall("stripe", "payment_method_get", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return toPaymentMethod(pm), nil
}

func toPaymentMethod(pm *stripe.PaymentMethod) *domain.PaymentMethod {
	switch {
	case pm.Card != nil:
		return &domain.PaymentMethod{Kind: "card", Last4: pm.Card.Last4, Brand: string(pm.Card.Brand)}
	case pm.USBankAccount != nil:
		return &domain.PaymentMethod{Kind: "bank", Last4: pm.USBankAccount.Last4, Brand: pm.USBankAccount.BankName}
	}
	return nil
}

func (c *Client) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	session, err := c.api.BillingPortalSessions.New(params)
	metrics.ProviderCall("stripe", "portal_session", err)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

// VerifyEvent checks the Stripe-Signature header against the webhook secret.
// Events are only stored, so payloads from any account API version are accepted.
func (c *Client) VerifyEvent(payload []byte, signature string) (*domain.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Event{ID: event.ID, Type: string(event.Type)}, nil
}
