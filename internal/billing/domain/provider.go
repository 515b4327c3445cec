package domain

import "context"

// Event is a verified webhook event.
type Event struct {
	ID   string
	Type string
}

// Provider is the billing backend. pkg/stripe implements it.
type Provider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethod, error)
	PortalURL(ctx context.Context, customerID, returnURL string) (string, error)
	VerifyEvent(payload []byte, signature string) (*Event, error)
}
