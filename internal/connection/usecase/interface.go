package usecase

import (
	"context"

	"inboxpilot-backend/internal/connection/domain"
)

// ConnectionUsecase manages the lifecycle of connected mailboxes
type ConnectionUsecase interface {
	Authorize(ctx context.Context, provider domain.Provider, meta domain.StateMetadata) (string, error)
	HandleCallback(ctx context.Context, provider domain.Provider, code, state, fallbackOrgID string) (*domain.ConnectedMailbox, error)
	Disconnect(ctx context.Context, orgID, email string) error
	ListConnected(ctx context.Context, orgID string) ([]*domain.ConnectedMailbox, error)
	UpdateSettings(ctx context.Context, orgID, email string, patch domain.SettingsPatch) (*domain.ConnectedMailbox, error)
	RenewSubscription(ctx context.Context, orgID, email string) (*domain.ConnectedMailbox, error)
}

// ConnectionLimiter decides whether an organization may link another mailbox.
// connected is the number of mailboxes the organization already has.
type ConnectionLimiter interface {
	CanConnect(ctx context.Context, orgID string, connected int64) (bool, error)
}
