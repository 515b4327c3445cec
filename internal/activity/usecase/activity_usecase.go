package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"inboxpilot-backend/internal/activity/domain"
	"inboxpilot-backend/internal/activity/repository"
	"inboxpilot-backend/pkg/apperror"

	"github.com/google/uuid"
)

const maxPageSize = 100

type ActivityUsecase interface {
	RecordLog(ctx context.Context, entry *domain.EmailLog) error
	RecordEscalation(ctx context.Context, escalation *domain.Escalation) error
	ListLogs(ctx context.Context, orgID string, limit, offset int) ([]*domain.EmailLog, int64, error)
	ListEscalations(ctx context.Context, orgID string, limit, offset int) ([]*domain.Escalation, int64, error)
	RemoveLog(ctx context.Context, orgID, id string) error
	RemoveEscalation(ctx context.Context, orgID, id string) error
	// RemoveLogs deletes the organization's logs created within [start, end].
	// Unless both bounds are given every log of the organization is removed.
	RemoveLogs(ctx context.Context, orgID string, start, end *time.Time) (int64, error)
	RemoveEscalations(ctx context.Context, orgID string, start, end *time.Time) (int64, error)
	// PurgeOlderThan removes logs and escalations older than days. An empty
	// orgID purges every organization.
	PurgeOlderThan(ctx context.Context, orgID string, days int) (*domain.PurgeResult, error)
}

type activityUsecase struct {
	repo repository.ActivityRepository
	now  func() time.Time
}

func NewActivityUsecase(repo repository.ActivityRepository) ActivityUsecase {
	return &activityUsecase{repo: repo, now: time.Now}
}

var logStatuses = map[string]bool{"sent": true, "failed": true, "draft": true, "scheduled": true}
var priorities = map[string]bool{"low": true, "medium": true, "high": true}

func (u *activityUsecase) RecordLog(ctx context.Context, entry *domain.EmailLog) error {
	if entry.OrgID == "" || entry.Email == "" || entry.Recipient == "" {
		return apperror.Validation("org, email and recipient are required")
	}
	if strings.TrimSpace(entry.Content) == "" {
		return apperror.Validation("content is required")
	}
	if entry.Status == "" {
		entry.Status = "sent"
	}
	if !logStatuses[entry.Status] {
		return apperror.Validation("status must be sent, failed, draft or scheduled")
	}
	entry.ID = uuid.New().String()
	if err := u.repo.CreateLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to record log: %w", err)
	}
	return nil
}

func (u *activityUsecase) RecordEscalation(ctx context.Context, escalation *domain.Escalation) error {
	if escalation.OrgID == "" || escalation.Account == "" || escalation.Recipient == "" {
		return apperror.Validation("org, account and recipient are required")
	}
	if strings.TrimSpace(escalation.Summary) == "" {
		return apperror.Validation("summary is required")
	}
	if escalation.Priority == "" {
		escalation.Priority = "low"
	}
	if !priorities[escalation.Priority] {
		return apperror.Validation("priority must be low, medium or high")
	}
	if escalation.Category == "" {
		escalation.Category = "Other"
	}
	escalation.ID = uuid.New().String()
	if err := u.repo.CreateEscalation(ctx, escalation); err != nil {
		return fmt.Errorf("failed to record escalation: %w", err)
	}
	return nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (u *activityUsecase) ListLogs(ctx context.Context, orgID string, limit, offset int) ([]*domain.EmailLog, int64, error) {
	limit, offset = page(limit, offset)
	return u.repo.ListLogs(ctx, orgID, limit, offset)
}

func (u *activityUsecase) ListEscalations(ctx context.Context, orgID string, limit, offset int) ([]*domain.Escalation, int64, error) {
	limit, offset = page(limit, offset)
	return u.repo.ListEscalations(ctx, orgID, limit, offset)
}

func (u *activityUsecase) RemoveLog(ctx context.Context, orgID, id string) error {
	if id == "" {
		return apperror.Validation("invalid log id")
	}
	entry, err := u.repo.FindLog(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load log: %w", err)
	}
	if entry == nil || entry.OrgID != orgID {
		return apperror.NotFound("log not found or does not belong to the organization")
	}
	n, err := u.repo.DeleteByID(ctx, &domain.EmailLog{}, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("no log found with the provided id")
	}
	return nil
}

func (u *activityUsecase) RemoveEscalation(ctx context.Context, orgID, id string) error {
	if id == "" {
		return apperror.Validation("invalid escalation id")
	}
	escalation, err := u.repo.FindEscalation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load escalation: %w", err)
	}
	if escalation == nil || escalation.OrgID != orgID {
		return apperror.NotFound("escalation not found or does not belong to the organization")
	}
	n, err := u.repo.DeleteByID(ctx, &domain.Escalation{}, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete escalation: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("no escalation found with the provided id")
	}
	return nil
}

func timeframe(start, end *time.Time) (*time.Time, *time.Time, error) {
	if start == nil || end == nil {
		return nil, nil, nil
	}
	if end.Before(*start) {
		return nil, nil, apperror.Validation("end must not be before start")
	}
	return start, end, nil
}

func (u *activityUsecase) RemoveLogs(ctx context.Context, orgID string, start, end *time.Time) (int64, error) {
	if orgID == "" {
		return 0, apperror.Validation("organization is required")
	}
	start, end, err := timeframe(start, end)
	if err != nil {
		return 0, err
	}
	n, err := u.repo.DeleteRange(ctx, &domain.EmailLog{}, orgID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete logs: %w", err)
	}
	log.Printf("[Activity] Removed %d logs for org %s", n, orgID)
	return n, nil
}

func (u *activityUsecase) RemoveEscalations(ctx context.Context, orgID string, start, end *time.Time) (int64, error) {
	if orgID == "" {
		return 0, apperror.Validation("organization is required")
	}
	start, end, err := timeframe(start, end)
	if err != nil {
		return 0, err
	}
	n, err := u.repo.DeleteRange(ctx, &domain.Escalation{}, orgID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete escalations: %w", err)
	}
	log.Printf("[Activity] Removed %d escalations for org %s", n, orgID)
	return n, nil
}

func (u *activityUsecase) PurgeOlderThan(ctx context.Context, orgID string, days int) (*domain.PurgeResult, error) {
	if days < 1 {
		return nil, apperror.Validation("days must be at least 1")
	}
	cutoff := u.now().Add(-time.Duration(days) * 24 * time.Hour)

	logs, err := u.repo.DeleteRange(ctx, &domain.EmailLog{}, orgID, nil, &cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge logs: %w", err)
	}
	escalations, err := u.repo.DeleteRange(ctx, &domain.Escalation{}, orgID, nil, &cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge escalations: %w", err)
	}
	return &domain.PurgeResult{Logs: logs, Escalations: escalations}, nil
}
