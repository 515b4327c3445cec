package repository

import (
	"context"
	"errors"

	"inboxpilot-backend/internal/organization/domain"

	"gorm.io/gorm"
)

type OrganizationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Organization, error)
	Create(ctx context.Context, org *domain.Organization) error
	// SetList overwrites one configuration array with values.
	SetList(ctx context.Context, id string, name domain.ListName, values domain.StringArray) error
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) FindByID(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) SetList(ctx context.Context, id string, name domain.ListName, values domain.StringArray) error {
	if !name.Valid() {
		return errors.New("unknown configuration list " + string(name))
	}
	return r.db.WithContext(ctx).Model(&domain.Organization{}).Where("id = ?", id).Update(string(name), values).Error
}
