package gmail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"inboxpilot-backend/internal/connection/domain"
	"inboxpilot-backend/pkg/metrics"
	"inboxpilot-backend/pkg/oauthtoken"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested on the consent screen
var Scopes = []string{
	gmail.GmailComposeScope,
	gmail.GmailReadonlyScope,
	"https://www.googleapis.com/auth/pubsub",
}

// Service talks to Gmail on behalf of connected mailboxes.
type Service struct {
	config    *oauth2.Config
	topicName string
	// endpoint overrides the Gmail API base URL in tests
	endpoint string
}

// NewService builds the Gmail client. topicName is the full Pub/Sub topic
// (projects/<project>/topics/<topic>) that watch notifications are published to.
func NewService(clientID, clientSecret, redirectURL, topicName string) *Service {
	return &Service{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		},
		topicName: topicName,
	}
}

// TopicPath expands a short topic name into the resource path Gmail expects.
func TopicPath(projectID, topic string) string {
	if topic == "" || projectID == "" {
		return topic
	}
	if strings.HasPrefix(topic, "projects/") {
		return topic
	}
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topic)
}

// AuthCodeURL returns the consent URL. Offline access plus forced consent makes
// Google issue a refresh token on every connect.
func (s *Service) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *Service) ExchangeCode(ctx context.Context, code string) (*domain.Tokens, error) {
	token, err := s.config.Exchange(ctx, code)
	metrics.ProviderCall("google", "exchange", err)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &domain.Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

// GetGmailService creates a Gmail API client for the stored tokens
func (s *Service) GetGmailService(ctx context.Context, tokens *domain.Tokens, onTokenRefresh domain.TokenUpdateFunc) (*gmail.Service, error) {
	src := oauthtoken.Source(ctx, s.config, tokens, onTokenRefresh)
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, src))}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

func (s *Service) GetProfile(ctx context.Context, tokens *domain.Tokens, onTokenRefresh domain.TokenUpdateFunc) (*domain.Profile, error) {
	srv, err := s.GetGmailService(ctx, tokens, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	metrics.ProviderCall("google", "profile", err)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch profile: %w", err)
	}
	if profile.EmailAddress == "" {
		return nil, errors.New("profile has no email address")
	}
	return &domain.Profile{Email: profile.EmailAddress}, nil
}

// Subscribe registers a watch on INBOX. The returned cursor is the history id
// rendered as Gmail's decimal string.
func (s *Service) Subscribe(ctx context.Context, tokens *domain.Tokens, onTokenRefresh domain.TokenUpdateFunc) (*domain.Subscription, error) {
	if s.topicName == "" {
		return nil, errors.New("gmail push topic is not configured")
	}
	srv, err := s.GetGmailService(ctx, tokens, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	req := &gmail.WatchRequest{
		TopicName: s.topicName,
		LabelIds:  []string{"INBOX"},
	}
	resp, err := srv.Users.Watch("me", req).Context(ctx).Do()
	metrics.ProviderCall("google", "watch", err)
	if err != nil {
		return nil, fmt.Errorf("unable to watch mailbox: %w", err)
	}
	log.Printf("[Gmail] Watch started on %s, expiration %s", s.topicName, time.UnixMilli(resp.Expiration).UTC().Format(time.RFC3339))

	return &domain.Subscription{
		Cursor:     strconv.FormatUint(resp.HistoryId, 10),
		Expiration: resp.Expiration,
	}, nil
}

// Renew re-issues the watch. Gmail keys watches by user, so the old cursor is not needed.
func (s *Service) Renew(ctx context.Context, tokens *domain.Tokens, _ string, onTokenRefresh domain.TokenUpdateFunc) (*domain.Subscription, error) {
	return s.Subscribe(ctx, tokens, onTokenRefresh)
}

func (s *Service) Unsubscribe(ctx context.Context, tokens *domain.Tokens, _ string, onTokenRefresh domain.TokenUpdateFunc) error {
	srv, err := s.GetGmailService(ctx, tokens, onTokenRefresh)
	if err != nil {
		return err
	}
	err = srv.Users.Stop("me").Context(ctx).Do()
	metrics.ProviderCall("google", "stop", err)
	if err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %w", err)
	}
	return nil
}
