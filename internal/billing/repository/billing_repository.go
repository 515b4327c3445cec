package repository

import (
	"context"
	"errors"

	"inboxpilot-backend/internal/billing/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BillingRepository interface {
	FindByOrg(ctx context.Context, orgID string) (*domain.OrgSubscription, error)
	Save(ctx context.Context, sub *domain.OrgSubscription) error
	// CreateEvent stores a webhook event. It returns false without error when
	// the event id was already recorded.
	CreateEvent(ctx context.Context, event *domain.WebhookEvent) (bool, error)
}

type billingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) FindByOrg(ctx context.Context, orgID string) (*domain.OrgSubscription, error) {
	var sub domain.OrgSubscription
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *billingRepository) Save(ctx context.Context, sub *domain.OrgSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *billingRepository) CreateEvent(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
