package repository

import (
	"context"
	"errors"
	"time"

	"inboxpilot-backend/internal/activity/domain"

	"gorm.io/gorm"
)

// ActivityRepository stores email logs and escalations. Both tables share the
// same org/created_at shape, so every query takes the model to operate on.
type ActivityRepository interface {
	CreateLog(ctx context.Context, log *domain.EmailLog) error
	CreateEscalation(ctx context.Context, escalation *domain.Escalation) error
	FindLog(ctx context.Context, id string) (*domain.EmailLog, error)
	FindEscalation(ctx context.Context, id string) (*domain.Escalation, error)
	ListLogs(ctx context.Context, orgID string, limit, offset int) ([]*domain.EmailLog, int64, error)
	ListEscalations(ctx context.Context, orgID string, limit, offset int) ([]*domain.Escalation, int64, error)
	DeleteByID(ctx context.Context, model interface{}, orgID, id string) (int64, error)
	// DeleteRange removes rows created within [start, end]. Nil bounds are open.
	DeleteRange(ctx context.Context, model interface{}, orgID string, start, end *time.Time) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CreateLog(ctx context.Context, log *domain.EmailLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityRepository) CreateEscalation(ctx context.Context, escalation *domain.Escalation) error {
	return r.db.WithContext(ctx).Create(escalation).Error
}

func (r *activityRepository) FindLog(ctx context.Context, id string) (*domain.EmailLog, error) {
	var log domain.EmailLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (r *activityRepository) FindEscalation(ctx context.Context, id string) (*domain.Escalation, error) {
	var escalation domain.Escalation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&escalation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &escalation, nil
}

func (r *activityRepository) ListLogs(ctx context.Context, orgID string, limit, offset int) ([]*domain.EmailLog, int64, error) {
	var logs []*domain.EmailLog
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.EmailLog{}).Where("org_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Where("org_id = ?", orgID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}

func (r *activityRepository) ListEscalations(ctx context.Context, orgID string, limit, offset int) ([]*domain.Escalation, int64, error) {
	var escalations []*domain.Escalation
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Escalation{}).Where("org_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Where("org_id = ?", orgID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&escalations).Error
	return escalations, total, err
}

func (r *activityRepository) DeleteByID(ctx context.Context, model interface{}, orgID, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).Delete(model)
	return result.RowsAffected, result.Error
}

// DeleteRange with an empty orgID spans every organization; callers outside the
// CLI always pass one.
func (r *activityRepository) DeleteRange(ctx context.Context, model interface{}, orgID string, start, end *time.Time) (int64, error) {
	query := r.db.WithContext(ctx)
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}
	if orgID == "" && start == nil && end == nil {
		// gorm refuses unconditional deletes
		query = query.Where("1 = 1")
	}
	result := query.Delete(model)
	return result.RowsAffected, result.Error
}
