package repository

import (
	"context"
	"errors"
	"time"

	"inboxpilot-backend/internal/connection/domain"

	"gorm.io/gorm"
)

// ConnectedRepository persists connected mailboxes
type ConnectedRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.ConnectedMailbox, error)
	FindByOrgAndEmail(ctx context.Context, orgID, email string) (*domain.ConnectedMailbox, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.ConnectedMailbox, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.ConnectedMailbox, error)
	CountByOrg(ctx context.Context, orgID string) (int64, error)
	Create(ctx context.Context, mailbox *domain.ConnectedMailbox) error
	Save(ctx context.Context, mailbox *domain.ConnectedMailbox) error
	UpdateTokens(ctx context.Context, email, accessToken, refreshToken string, expiry time.Time) error
	TouchLastOn(ctx context.Context, email string, at time.Time) error
	Delete(ctx context.Context, orgID, email string) (int64, error)
}

type connectedRepository struct {
	db *gorm.DB
}

func NewConnectedRepository(db *gorm.DB) ConnectedRepository {
	return &connectedRepository{db: db}
}

func (r *connectedRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.ConnectedMailbox, error) {
	var mailbox domain.ConnectedMailbox
	err := r.db.WithContext(ctx).Where(query, args...).First(&mailbox).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mailbox, nil
}

func (r *connectedRepository) FindByEmail(ctx context.Context, email string) (*domain.ConnectedMailbox, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *connectedRepository) FindByOrgAndEmail(ctx context.Context, orgID, email string) (*domain.ConnectedMailbox, error) {
	return r.first(ctx, "org_id = ? AND email = ?", orgID, email)
}

func (r *connectedRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.ConnectedMailbox, error) {
	return r.first(ctx, "provider = ? AND subscription_id = ?", domain.ProviderOutlook, subscriptionID)
}

func (r *connectedRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.ConnectedMailbox, error) {
	var mailboxes []*domain.ConnectedMailbox
	err := r.db.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&mailboxes).Error
	return mailboxes, err
}

func (r *connectedRepository) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ConnectedMailbox{}).Where("org_id = ?", orgID).Count(&count).Error
	return count, err
}

func (r *connectedRepository) Create(ctx context.Context, mailbox *domain.ConnectedMailbox) error {
	return r.db.WithContext(ctx).Create(mailbox).Error
}

func (r *connectedRepository) Save(ctx context.Context, mailbox *domain.ConnectedMailbox) error {
	return r.db.WithContext(ctx).Save(mailbox).Error
}

// UpdateTokens stores tokens refreshed by the OAuth client. An empty refresh
// token keeps the stored one, since providers omit it on refresh.
func (r *connectedRepository) UpdateTokens(ctx context.Context, email, accessToken, refreshToken string, expiry time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"token_expiry": expiry,
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.WithContext(ctx).Model(&domain.ConnectedMailbox{}).Where("email = ?", email).Updates(updates).Error
}

func (r *connectedRepository) TouchLastOn(ctx context.Context, email string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.ConnectedMailbox{}).Where("email = ?", email).Update("last_on", at).Error
}

func (r *connectedRepository) Delete(ctx context.Context, orgID, email string) (int64, error) {
	result := r.db.WithContext(ctx).Where("org_id = ? AND email = ?", orgID, email).Delete(&domain.ConnectedMailbox{})
	return result.RowsAffected, result.Error
}
