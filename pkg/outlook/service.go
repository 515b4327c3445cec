package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inboxpilot-backend/internal/connection/domain"
	"inboxpilot-backend/pkg/metrics"
	"inboxpilot-backend/pkg/oauthtoken"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

var Scopes = []string{
	"offline_access",
	"User.Read",
	"Mail.ReadWrite",
	"Mail.Send",
}

const inboxResource = "me/mailFolders('Inbox')/messages"

// Config holds the Microsoft application and Graph subscription settings.
type Config struct {
	ClientID        string
	ClientSecret    string
	Tenant          string
	RedirectURL     string
	NotificationURL string
	ClientState     string
	GraphBaseURL    string
	SubscriptionTTL time.Duration
}

// Service talks to Microsoft Graph on behalf of connected mailboxes.
type Service struct {
	oauth *oauth2.Config
	cfg   Config
	now   func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Tenant == "" {
		cfg.Tenant = "common"
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.microsoft.com/v1.0"
	}
	if cfg.SubscriptionTTL <= 0 {
		cfg.SubscriptionTTL = 3*24*time.Hour - time.Minute
	}
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     microsoft.AzureADEndpoint(cfg.Tenant),
			Scopes:       Scopes,
		},
		cfg: cfg,
		now: time.Now,
	}
}

func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *Service) ExchangeCode(ctx context.Context, code string) (*domain.Tokens, error) {
	token, err := s.oauth.Exchange(ctx, code)
	metrics.ProviderCall("outlook", "exchange", err)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &domain.Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

func (s *Service) httpClient(ctx context.Context, tokens *domain.Tokens, onTokenRefresh domain.TokenUpdateFunc) *http.Client {
	return oauth2.NewClient(ctx, oauthtoken.Source(ctx, s.oauth, tokens, onTokenRefresh))
}

// graphError is the error envelope Graph returns on non-2xx responses.
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Service) do(ctx context.Context, client *http.Client, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.cfg.GraphBaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var gerr graphError
		if json.Unmarshal(raw, &gerr) == nil && gerr.Error.Message != "" {
			return fmt.Errorf("graph %s %s: status %d: %s: %s", method, path, resp.StatusCode, gerr.Error.Code, gerr.Error.Message)
		}
		return fmt.Errorf("graph %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode graph response: %w", err)
	}
	return nil
}

type graphUser struct {
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// GetProfile reads /me. Personal accounts often leave mail empty, so the
// principal name is used as the address then.
func (s *Service) GetProfile(ctx context.Context, tokens *domain.Tokens, onTokenRefresh domain.TokenUpdateFunc) (*domain.Profile, error) {
	var user graphUser
	err := s.do(ctx, s.httpClient(ctx, tokens, onTokenRefresh), http.MethodGet, "/me", nil, &user)
	metrics.ProviderCall("outlook", "profile", err)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch profile: %w", err)
	}
	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}
	if email == "" {
		return nil, errors.New("profile has no email address")
	}
	return &domain.Profile{Email: email}, nil
}

type subscriptionRequest struct {
	ChangeType         string `json:"changeType,omitempty"`
	NotificationURL    string `json:"notificationUrl,omitempty"`
	Resource           string `json:"resource,omitempty"`
	ExpirationDateTime string `json:"expirationDateTime"`
	ClientState        string `json:"clientState,omitempty"`
}

type subscriptionResponse struct {
	ID                 string    `json:"id"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

func (r subscriptionResponse) toDomain() (*domain.Subscription, error) {
	if r.ID == "" {
		return nil, errors.New("graph returned a subscription without id")
	}
	return &domain.Subscription{Cursor: r.ID, Expiration: r.ExpirationDateTime.UnixMilli()}, nil
}

func (s *Service) expiration() string {
	return s.now().Add(s.cfg.SubscriptionTTL).UTC().Format(time.RFC3339)
}

// Subscribe creates a Graph subscription for new messages in the inbox.
func (s *Service) Subscribe(ctx context.Context, tokens *domain.Tokens, onTokenRefresh domain.TokenUpdateFunc) (*domain.Subscription, error) {
	if s.cfg.NotificationURL == "" {
		return nil, errors.New("outlook notification url is not configured")
	}
	req := subscriptionRequest{
		ChangeType:         "created",
		NotificationURL:    s.cfg.NotificationURL,
		Resource:           inboxResource,
		ExpirationDateTime: s.expiration(),
		ClientState:        s.cfg.ClientState,
	}
	var resp subscriptionResponse
	err := s.do(ctx, s.httpClient(ctx, tokens, onTokenRefresh), http.MethodPost, "/subscriptions", req, &resp)
	metrics.ProviderCall("outlook", "subscribe", err)
	if err != nil {
		return nil, fmt.Errorf("unable to create subscription: %w", err)
	}
	log.Printf("[Outlook] Subscription %s created, expires %s", resp.ID, resp.ExpirationDateTime.Format(time.RFC3339))
	return resp.toDomain()
}

// Renew pushes the expiration of an existing subscription forward.
func (s *Service) Renew(ctx context.Context, tokens *domain.Tokens, cursor string, onTokenRefresh domain.TokenUpdateFunc) (*domain.Subscription, error) {
	if cursor == "" {
		return s.Subscribe(ctx, tokens, onTokenRefresh)
	}
	var resp subscriptionResponse
	err := s.do(ctx, s.httpClient(ctx, tokens, onTokenRefresh), http.MethodPatch,
		"/subscriptions/"+url.PathEscape(cursor), subscriptionRequest{ExpirationDateTime: s.expiration()}, &resp)
	metrics.ProviderCall("outlook", "renew", err)
	if err != nil {
		return nil, fmt.Errorf("unable to renew subscription: %w", err)
	}
	return resp.toDomain()
}

func (s *Service) Unsubscribe(ctx context.Context, tokens *domain.Tokens, cursor string, onTokenRefresh domain.TokenUpdateFunc) error {
	if cursor == "" {
		return errors.New("no subscription id stored")
	}
	err := s.do(ctx, s.httpClient(ctx, tokens, onTokenRefresh), http.MethodDelete, "/subscriptions/"+url.PathEscape(cursor), nil, nil)
	metrics.ProviderCall("outlook", "unsubscribe", err)
	if err != nil {
		return fmt.Errorf("unable to delete subscription: %w", err)
	}
	return nil
}
