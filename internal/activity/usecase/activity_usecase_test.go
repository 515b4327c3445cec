package usecase

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"inboxpilot-backend/internal/activity/domain"
	"inboxpilot-backend/internal/activity/repository"
	"inboxpilot-backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	tmpFile, err := os.CreateTemp("", "activity_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()

	db, err := gorm.Open(sqlite.Open(tmpFile.Name()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&domain.EmailLog{}, &domain.Escalation{}); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.Remove(tmpFile.Name())
	}
	return db, cleanup
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func seedLog(t *testing.T, db *gorm.DB, orgID string, createdAt time.Time) string {
	t.Helper()
	id := uuid.New().String()
	entry := &domain.EmailLog{ID: id, OrgID: orgID, Email: "box@x.com", Recipient: "c@y.com", Content: "hi", Status: "sent", CreatedAt: createdAt, UpdatedAt: createdAt}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed log failed: %v", err)
	}
	return id
}

func seedEscalation(t *testing.T, db *gorm.DB, orgID string, createdAt time.Time) string {
	t.Helper()
	id := uuid.New().String()
	e := &domain.Escalation{ID: id, OrgID: orgID, Summary: "angry customer", Subject: "refund", Account: "box@x.com", Recipient: "c@y.com", ThreadID: "t1", CreatedAt: createdAt, UpdatedAt: createdAt}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed escalation failed: %v", err)
	}
	return id
}

func countLogs(db *gorm.DB, orgID string) int64 {
	var n int64
	db.Model(&domain.EmailLog{}).Where("org_id = ?", orgID).Count(&n)
	return n
}

func TestRemoveLogScopedToOrganization(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	uc := NewActivityUsecase(repository.NewActivityRepository(db))
	ctx := context.Background()

	id := seedLog(t, db, "org-1", day(1))

	if err := uc.RemoveLog(ctx, "org-2", id); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected NotFound for other org, got %v", err)
	}
	if countLogs(db, "org-1") != 1 {
		t.Fatal("log of another org must not be deleted")
	}
	if err := uc.RemoveLog(ctx, "org-1", "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected NotFound for missing id, got %v", err)
	}
	if err := uc.RemoveLog(ctx, "org-1", id); err != nil {
		t.Fatalf("RemoveLog failed: %v", err)
	}
	if countLogs(db, "org-1") != 0 {
		t.Error("expected log to be deleted")
	}
}

func TestRemoveEscalation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	uc := NewActivityUsecase(repository.NewActivityRepository(db))
	ctx := context.Background()

	id := seedEscalation(t, db, "org-1", day(1))
	if err := uc.RemoveEscalation(ctx, "org-2", id); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := uc.RemoveEscalation(ctx, "org-1", id); err != nil {
		t.Fatalf("RemoveEscalation failed: %v", err)
	}
}

func TestRemoveLogsTimeframe(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	uc := NewActivityUsecase(repository.NewActivityRepository(db))
	ctx := context.Background()

	seedLog(t, db, "org-1", day(1))
	seedLog(t, db, "org-1", day(5))
	seedLog(t, db, "org-1", day(10))
	seedLog(t, db, "org-2", day(5))

	start, end := day(4), day(6)
	n, err := uc.RemoveLogs(ctx, "org-1", &start, &end)
	if err != nil {
		t.Fatalf("RemoveLogs failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed in range, got %d", n)
	}
	if countLogs(db, "org-2") != 1 {
		t.Error("other organization must be untouched")
	}

	// a single bound means "everything"
	n, err = uc.RemoveLogs(ctx, "org-1", &start, nil)
	if err != nil {
		t.Fatalf("RemoveLogs failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected remaining 2 removed, got %d", n)
	}
	if countLogs(db, "org-1") != 0 {
		t.Error("expected all org-1 logs removed")
	}

	if _, err := uc.RemoveLogs(ctx, "org-1", &end, &start); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}
}

func TestRemoveEscalationsAll(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	uc := NewActivityUsecase(repository.NewActivityRepository(db))

	seedEscalation(t, db, "org-1", day(1))
	seedEscalation(t, db, "org-1", day(2))
	seedEscalation(t, db, "org-2", day(2))

	n, err := uc.RemoveEscalations(context.Background(), "org-1", nil, nil)
	if err != nil {
		t.Fatalf("RemoveEscalations failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	uc := NewActivityUsecase(repository.NewActivityRepository(db)).(*activityUsecase)
	uc.now = func() time.Time { return day(20) }
	ctx := context.Background()

	seedLog(t, db, "org-1", day(1))
	seedLog(t, db, "org-2", day(2))
	seedLog(t, db, "org-1", day(19))
	seedEscalation(t, db, "org-1", day(3))

	if _, err := uc.PurgeOlderThan(ctx, "", 0); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error for 0 days, got %v", err)
	}

	res, err := uc.PurgeOlderThan(ctx, "", 7)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if res.Logs != 2 || res.Escalations != 1 {
		t.Errorf("unexpected purge result %+v", res)
	}
	if countLogs(db, "org-1") != 1 {
		t.Error("recent log should survive the purge")
	}
}

func TestRecordLogValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	uc := NewActivityUsecase(repository.NewActivityRepository(db))
	ctx := context.Background()

	bad := &domain.EmailLog{OrgID: "org-1", Email: "box@x.com", Recipient: "c@y.com", Content: "hi", Status: "exploded"}
	if err := uc.RecordLog(ctx, bad); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	entry := &domain.EmailLog{OrgID: "org-1", Email: "box@x.com", Recipient: "c@y.com", Content: "hi"}
	if err := uc.RecordLog(ctx, entry); err != nil {
		t.Fatalf("RecordLog failed: %v", err)
	}
	logs, total, err := uc.ListLogs(ctx, "org-1", 0, 0)
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if total != 1 || len(logs) != 1 || logs[0].Status != "sent" {
		t.Errorf("unexpected logs: total=%d %+v", total, logs)
	}
}
