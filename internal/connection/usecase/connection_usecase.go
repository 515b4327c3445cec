package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"inboxpilot-backend/internal/connection/domain"
	"inboxpilot-backend/internal/connection/repository"
	"inboxpilot-backend/pkg/apperror"
	"inboxpilot-backend/pkg/utils/crypto"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const duplicateAccountMessage = "This account is already linked to another organization"

type connectionUsecase struct {
	repo          repository.ConnectedRepository
	providers     map[domain.Provider]domain.ProviderClient
	limiter       ConnectionLimiter
	encryptionKey string
}

// NewConnectionUsecase wires the connection manager. limiter may be nil, in which
// case no plan limit is enforced.
func NewConnectionUsecase(repo repository.ConnectedRepository, providers map[domain.Provider]domain.ProviderClient, limiter ConnectionLimiter, encryptionKey string) ConnectionUsecase {
	return &connectionUsecase{
		repo:          repo,
		providers:     providers,
		limiter:       limiter,
		encryptionKey: encryptionKey,
	}
}

func (u *connectionUsecase) client(provider domain.Provider) (domain.ProviderClient, error) {
	if !provider.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown provider %q", provider))
	}
	c, ok := u.providers[provider]
	if !ok || c == nil {
		return nil, apperror.Validation(fmt.Sprintf("provider %q is not configured", provider))
	}
	return c, nil
}

func (u *connectionUsecase) Authorize(ctx context.Context, provider domain.Provider, meta domain.StateMetadata) (string, error) {
	c, err := u.client(provider)
	if err != nil {
		return "", err
	}
	if meta.OrgID == "" {
		return "", apperror.Validation("organization is required")
	}
	if meta.SendMode != "" && !meta.SendMode.Valid() {
		return "", apperror.Validation("send mode must be send or draft")
	}

	if u.limiter != nil {
		count, err := u.repo.CountByOrg(ctx, meta.OrgID)
		if err != nil {
			return "", fmt.Errorf("failed to count connected mailboxes: %w", err)
		}
		allowed, err := u.limiter.CanConnect(ctx, meta.OrgID, count)
		if err != nil {
			return "", fmt.Errorf("failed to check plan limit: %w", err)
		}
		if !allowed {
			return "", apperror.PlanLimit("your plan does not allow connecting more mailboxes")
		}
	}

	meta.Provider = provider
	state, err := meta.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return c.AuthCodeURL(state), nil
}

func (u *connectionUsecase) HandleCallback(ctx context.Context, provider domain.Provider, code, state, fallbackOrgID string) (*domain.ConnectedMailbox, error) {
	c, err := u.client(provider)
	if err != nil {
		return nil, err
	}

	// Resolve the organization before spending the one-time code.
	meta, ok := domain.DecodeState(state)
	if !ok {
		log.Printf("[OAuth] Failed to parse state, using defaults")
	}
	orgID := meta.OrgID
	if orgID == "" {
		orgID = fallbackOrgID
	}
	if orgID == "" {
		return nil, apperror.Validation("organization is required")
	}

	tokens, err := c.ExchangeCode(ctx, code)
	if err != nil {
		return nil, apperror.AuthExchange("failed to exchange code for tokens", err)
	}
	profile, err := c.GetProfile(ctx, tokens, nil)
	if err != nil {
		return nil, apperror.AuthExchange("failed to fetch profile", err)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	existing, err := u.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mailbox: %w", err)
	}
	if existing != nil && existing.OrgID != orgID {
		return nil, apperror.DuplicateAccount(duplicateAccountMessage)
	}

	// No row is written unless the push subscription exists.
	sub, err := u.subscribe(ctx, provider, c, tokens, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to set up push subscription: %w", err)
	}

	accessToken, refreshToken, err := u.seal(tokens.AccessToken, tokens.RefreshToken)
	if err != nil {
		return nil, err
	}
	expiry := tokens.Expiry

	if existing != nil {
		existing.Provider = provider
		existing.AccessToken = accessToken
		if refreshToken != "" {
			existing.RefreshToken = refreshToken
		}
		existing.TokenExpiry = &expiry
		existing.SetCursor(sub.Cursor)
		existing.Expiration = sub.Expiration
		existing.IsActive = true
		if err := u.repo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update mailbox: %w", err)
		}
		log.Printf("[OAuth] Reconnected %s mailbox %s for org %s", provider, email, orgID)
		return existing, nil
	}

	mailbox := &domain.ConnectedMailbox{
		Email:        email,
		OrgID:        orgID,
		Provider:     provider,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenExpiry:  &expiry,
		Expiration:   sub.Expiration,
		IsActive:     true,
		SendMode:     meta.SendMode,
		RevealAI:     *meta.RevealAI,
		Purpose:      meta.Purpose,
		Frequency:    meta.Frequency,
	}
	mailbox.SetCursor(sub.Cursor)

	if err := u.repo.Create(ctx, mailbox); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.DuplicateAccount(duplicateAccountMessage)
		}
		return nil, fmt.Errorf("failed to save mailbox: %w", err)
	}
	log.Printf("[OAuth] Connected %s mailbox %s for org %s", provider, email, orgID)
	return mailbox, nil
}

// subscribe registers push delivery for a callback. A reconnecting mailbox
// renews its stored registration so the old one is not left running; if that
// fails the old one is cancelled best effort and a new one is created.
func (u *connectionUsecase) subscribe(ctx context.Context, provider domain.Provider, c domain.ProviderClient, tokens *domain.Tokens, existing *domain.ConnectedMailbox) (*domain.Subscription, error) {
	if existing == nil || existing.Provider != provider || existing.Cursor() == "" {
		return c.Subscribe(ctx, tokens, nil)
	}
	cursor := existing.Cursor()
	sub, err := c.Renew(ctx, tokens, cursor, nil)
	if err == nil {
		return sub, nil
	}
	log.Printf("[OAuth] Failed to renew push subscription for %s, creating a new one: %v", existing.Email, err)
	if err := c.Unsubscribe(ctx, tokens, cursor, nil); err != nil {
		log.Printf("[OAuth] Failed to cancel previous push subscription for %s: %v", existing.Email, err)
	}
	return c.Subscribe(ctx, tokens, nil)
}

func (u *connectionUsecase) Disconnect(ctx context.Context, orgID, email string) error {
	mailbox, err := u.repo.FindByOrgAndEmail(ctx, orgID, email)
	if err != nil {
		return fmt.Errorf("failed to look up mailbox: %w", err)
	}
	if mailbox == nil {
		return apperror.NotFound("no connected mailbox found for " + email)
	}

	// Cancellation is best effort; the row is removed either way.
	if c, err := u.client(mailbox.Provider); err != nil {
		log.Printf("[OAuth] Skipping unsubscribe for %s: %v", email, err)
	} else if tokens, err := u.tokens(mailbox); err != nil {
		log.Printf("[OAuth] Skipping unsubscribe for %s: %v", email, err)
	} else if err := c.Unsubscribe(ctx, tokens, mailbox.Cursor(), u.tokenUpdater(ctx, mailbox.Email)); err != nil {
		log.Printf("[OAuth] Failed to cancel push subscription for %s: %v", email, err)
	}

	if _, err := u.repo.Delete(ctx, orgID, email); err != nil {
		return fmt.Errorf("failed to delete mailbox: %w", err)
	}
	log.Printf("[OAuth] Disconnected %s from org %s", email, orgID)
	return nil
}

func (u *connectionUsecase) ListConnected(ctx context.Context, orgID string) ([]*domain.ConnectedMailbox, error) {
	return u.repo.ListByOrg(ctx, orgID)
}

func (u *connectionUsecase) UpdateSettings(ctx context.Context, orgID, email string, patch domain.SettingsPatch) (*domain.ConnectedMailbox, error) {
	mailbox, err := u.repo.FindByOrgAndEmail(ctx, orgID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mailbox: %w", err)
	}
	if mailbox == nil {
		return nil, apperror.NotFound("no connected mailbox found for " + email)
	}

	if patch.SendMode != nil {
		if !patch.SendMode.Valid() {
			return nil, apperror.Validation("send mode must be send or draft")
		}
		mailbox.SendMode = *patch.SendMode
	}
	if patch.Frequency != nil {
		switch {
		case *patch.Frequency < 0:
			return nil, apperror.Validation("frequency must not be negative")
		case *patch.Frequency == 0:
			mailbox.Frequency = nil
		default:
			freq := *patch.Frequency
			mailbox.Frequency = &freq
		}
	}
	if patch.RevealAI != nil {
		mailbox.RevealAI = *patch.RevealAI
	}
	if patch.Purpose != nil {
		mailbox.Purpose = strings.TrimSpace(*patch.Purpose)
	}
	if patch.IsActive != nil {
		mailbox.IsActive = *patch.IsActive
	}

	if err := u.repo.Save(ctx, mailbox); err != nil {
		return nil, fmt.Errorf("failed to update mailbox: %w", err)
	}
	return mailbox, nil
}

// RenewSubscription re-registers the push subscription on demand and stores the
// returned cursor and expiration verbatim.
func (u *connectionUsecase) RenewSubscription(ctx context.Context, orgID, email string) (*domain.ConnectedMailbox, error) {
	mailbox, err := u.repo.FindByOrgAndEmail(ctx, orgID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mailbox: %w", err)
	}
	if mailbox == nil {
		return nil, apperror.NotFound("no connected mailbox found for " + email)
	}
	c, err := u.client(mailbox.Provider)
	if err != nil {
		return nil, err
	}
	tokens, err := u.tokens(mailbox)
	if err != nil {
		return nil, err
	}

	sub, err := c.Renew(ctx, tokens, mailbox.Cursor(), u.tokenUpdater(ctx, mailbox.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to renew push subscription: %w", err)
	}
	mailbox.SetCursor(sub.Cursor)
	mailbox.Expiration = sub.Expiration

	// a refresh during Renew may have rewritten the token columns
	if err := u.repo.Save(ctx, u.withStoredTokens(ctx, mailbox)); err != nil {
		return nil, fmt.Errorf("failed to store renewed subscription: %w", err)
	}
	return mailbox, nil
}

func (u *connectionUsecase) withStoredTokens(ctx context.Context, mailbox *domain.ConnectedMailbox) *domain.ConnectedMailbox {
	current, err := u.repo.FindByEmail(ctx, mailbox.Email)
	if err != nil || current == nil {
		return mailbox
	}
	mailbox.AccessToken = current.AccessToken
	mailbox.RefreshToken = current.RefreshToken
	mailbox.TokenExpiry = current.TokenExpiry
	return mailbox
}

func (u *connectionUsecase) seal(accessToken, refreshToken string) (string, string, error) {
	access, err := crypto.Encrypt(accessToken, u.encryptionKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal access token: %w", err)
	}
	refresh, err := crypto.Encrypt(refreshToken, u.encryptionKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal refresh token: %w", err)
	}
	return access, refresh, nil
}

func (u *connectionUsecase) tokens(mailbox *domain.ConnectedMailbox) (*domain.Tokens, error) {
	access, err := crypto.Decrypt(mailbox.AccessToken, u.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open access token: %w", err)
	}
	refresh, err := crypto.Decrypt(mailbox.RefreshToken, u.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open refresh token: %w", err)
	}
	tokens := &domain.Tokens{AccessToken: access, RefreshToken: refresh}
	if mailbox.TokenExpiry != nil {
		tokens.Expiry = *mailbox.TokenExpiry
	}
	return tokens, nil
}

func (u *connectionUsecase) tokenUpdater(ctx context.Context, email string) domain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		access, refresh, err := u.seal(token.AccessToken, token.RefreshToken)
		if err != nil {
			return err
		}
		return u.repo.UpdateTokens(ctx, email, access, refresh, token.Expiry)
	}
}
