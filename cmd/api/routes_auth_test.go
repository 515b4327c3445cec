package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	activitydomain "inboxpilot-backend/internal/activity/domain"
	activityDelivery "inboxpilot-backend/internal/activity/delivery"
	activityRepo "inboxpilot-backend/internal/activity/repository"
	activityUsecase "inboxpilot-backend/internal/activity/usecase"
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	billingDelivery "inboxpilot-backend/internal/billing/delivery"
	billingdomain "inboxpilot-backend/internal/billing/domain"
	billingRepo "inboxpilot-backend/internal/billing/repository"
	billingUsecase "inboxpilot-backend/internal/billing/usecase"
	connectionDelivery "inboxpilot-backend/internal/connection/delivery"
	connectiondomain "inboxpilot-backend/internal/connection/domain"
	connectionRepo "inboxpilot-backend/internal/connection/repository"
	connectionUsecase "inboxpilot-backend/internal/connection/usecase"
	knowledgeDelivery "inboxpilot-backend/internal/knowledge/delivery"
	knowledgedomain "inboxpilot-backend/internal/knowledge/domain"
	knowledgeRepo "inboxpilot-backend/internal/knowledge/repository"
	knowledgeUsecase "inboxpilot-backend/internal/knowledge/usecase"
	"inboxpilot-backend/internal/notification"
	organizationDelivery "inboxpilot-backend/internal/organization/delivery"
	organizationdomain "inboxpilot-backend/internal/organization/domain"
	organizationRepo "inboxpilot-backend/internal/organization/repository"
	organizationUsecase "inboxpilot-backend/internal/organization/usecase"
	"inboxpilot-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "api_test_*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := gorm.Open(sqlite.Open(tmpFile.Name()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	err = db.AutoMigrate(
		&connectiondomain.ConnectedMailbox{},
		&organizationdomain.Organization{},
		&activitydomain.EmailLog{},
		&activitydomain.Escalation{},
		&billingdomain.OrgSubscription{},
		&billingdomain.WebhookEvent{},
		&knowledgedomain.Source{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// newWiredHandler builds every handler over a temp database, with no provider
// clients, no billing provider and no crawler.
func newWiredHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Minute}

	orgUc := organizationUsecase.NewOrganizationUsecase(organizationRepo.NewOrganizationRepository(db))
	org, err := orgUc.CreateOrganization(context.Background(), "Acme Support", "ops@acme.com", "user-1", 0)
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	billingUc := billingUsecase.NewBillingUsecase(billingRepo.NewBillingRepository(db), nil, billingdomain.PriceCatalog{}, "")
	connectionUc := connectionUsecase.NewConnectionUsecase(connectionRepo.NewConnectedRepository(db), nil, billingUc, "")
	knowledgeUc := knowledgeUsecase.NewKnowledgeUsecase(knowledgeRepo.NewSourceRepository(db), nil, nil, billingUc)

	authUc := authUsecase.NewAuthUsecase(cfg)
	token, err := authUc.IssueToken("user-1", org.ID, 0)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	return &Handler{
		AuthUsecase:  authUc,
		Connection:   connectionDelivery.NewConnectionHandler(connectionUc, "https://app.example.com/connect"),
		Organization: organizationDelivery.NewOrganizationHandler(orgUc),
		Activity:     activityDelivery.NewActivityHandler(activityUsecase.NewActivityUsecase(activityRepo.NewActivityRepository(db))),
		Billing:      billingDelivery.NewBillingHandler(billingUc),
		Knowledge:    knowledgeDelivery.NewKnowledgeHandler(knowledgeUc),
		Outlook:      notification.NewOutlookHandler(notification.NewIntake(nil, nil), ""),
	}, token
}

func TestRouterBuildsWithAllRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newWiredHandler(t)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("route registration panicked: %v", r)
		}
	}()
	routes := h.Router().Routes()
	if len(routes) == 0 {
		t.Fatal("expected routes to be registered")
	}
}

func TestProtectedRoutesWithValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, token := newWiredHandler(t)
	r := h.Router()

	const missingID = "00000000-0000-0000-0000-000000000000"
	tests := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/connections", "", http.StatusOK},
		{http.MethodPost, "/api/connections/authorize/google", "", http.StatusBadRequest},
		{http.MethodPatch, "/api/connections/user@x.com", `{}`, http.StatusNotFound},
		{http.MethodPost, "/api/connections/user@x.com/renew", "", http.StatusNotFound},
		{http.MethodDelete, "/api/connections/user@x.com", "", http.StatusNotFound},
		{http.MethodGet, "/api/organization", "", http.StatusOK},
		{http.MethodGet, "/api/configuration", "", http.StatusOK},
		{http.MethodPost, "/api/configuration/blacklist_emails", `{"value":"spam@x.com"}`, http.StatusOK},
		{http.MethodDelete, "/api/configuration/blacklist_emails", `{"value":"spam@x.com"}`, http.StatusOK},
		{http.MethodGet, "/api/logs", "", http.StatusOK},
		{http.MethodPost, "/api/logs", `{}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/logs", "", http.StatusOK},
		{http.MethodDelete, "/api/logs/" + missingID, "", http.StatusNotFound},
		{http.MethodGet, "/api/escalations", "", http.StatusOK},
		{http.MethodPost, "/api/escalations", `{}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/escalations", "", http.StatusOK},
		{http.MethodDelete, "/api/escalations/" + missingID, "", http.StatusNotFound},
		{http.MethodGet, "/api/billing/subscription", "", http.StatusOK},
		{http.MethodGet, "/api/billing/plan", "", http.StatusOK},
		{http.MethodGet, "/api/sources", "", http.StatusNotFound},
		{http.MethodGet, "/api/sources/search?q=pricing", "", http.StatusBadRequest},
		{http.MethodPost, "/api/sources/website", `{}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/sources/website", `{"urls":["https://acme.com/pricing"]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		var req *http.Request
		if tt.body != "" {
			req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(tt.method, tt.target, nil)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d (%s)", tt.method, tt.target, rec.Code, tt.want, rec.Body.String())
		}
		// a missing route would answer with gin's plain-text 404
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
			t.Errorf("%s %s: expected a JSON response from the handler, got %q", tt.method, tt.target, rec.Header().Get("Content-Type"))
		}
	}
}
