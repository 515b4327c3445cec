package repository

import (
	"context"
	"errors"

	"inboxpilot-backend/internal/knowledge/domain"

	"gorm.io/gorm"
)

type SourceRepository interface {
	FindByOrg(ctx context.Context, orgID string) (*domain.Source, error)
	Save(ctx context.Context, source *domain.Source) error
}

type sourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) FindByOrg(ctx context.Context, orgID string) (*domain.Source, error) {
	var source domain.Source
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &source, nil
}

func (r *sourceRepository) Save(ctx context.Context, source *domain.Source) error {
	return r.db.WithContext(ctx).Save(source).Error
}
