package domain

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc persists a token the OAuth client refreshed while calling a provider.
type TokenUpdateFunc func(token *oauth2.Token) error

// Tokens is the credential pair stored for a mailbox.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Profile is the account identity returned after a code exchange.
type Profile struct {
	Email string
}

// Subscription is what a provider returns for a push registration. Cursor is
// opaque: the Gmail history id or the Outlook subscription id.
type Subscription struct {
	Cursor     string
	Expiration int64
}

// ProviderClient is the capability the connection manager needs from a mailbox provider.
type ProviderClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Tokens, error)
	GetProfile(ctx context.Context, tokens *Tokens, onTokenRefresh TokenUpdateFunc) (*Profile, error)
	Subscribe(ctx context.Context, tokens *Tokens, onTokenRefresh TokenUpdateFunc) (*Subscription, error)
	// Renew extends an existing registration identified by cursor.
	Renew(ctx context.Context, tokens *Tokens, cursor string, onTokenRefresh TokenUpdateFunc) (*Subscription, error)
	Unsubscribe(ctx context.Context, tokens *Tokens, cursor string, onTokenRefresh TokenUpdateFunc) error
}
