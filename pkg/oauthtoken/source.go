// Package oauthtoken builds token sources for stored mailbox credentials.
package oauthtoken

import (
	"context"
	"log"

	"inboxpilot-backend/internal/connection/domain"

	"golang.org/x/oauth2"
)

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback domain.TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[OAuth] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// Source returns a token source for tokens that reports every refreshed token
// to onRefresh. onRefresh may be nil.
func Source(ctx context.Context, cfg *oauth2.Config, tokens *domain.Tokens, onRefresh domain.TokenUpdateFunc) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       tokens.Expiry,
	}
	return &notifyTokenSource{
		src:      cfg.TokenSource(ctx, token),
		current:  token,
		callback: onRefresh,
	}
}
