package delivery

import (
	"io"
	"log"
	"net/http"

	authdelivery "inboxpilot-backend/internal/auth/delivery"
	"inboxpilot-backend/internal/billing/usecase"
	"inboxpilot-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Stripe signs payloads well below this size.
const maxWebhookBody = 1 << 16

type BillingHandler struct {
	billingUsecase usecase.BillingUsecase
}

func NewBillingHandler(billingUsecase usecase.BillingUsecase) *BillingHandler {
	return &BillingHandler{billingUsecase: billingUsecase}
}

// GetSubscription handles GET /api/billing/subscription
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	orgID := authdelivery.OrgID(c)
	c.JSON(http.StatusOK, gin.H{
		"subscription": h.billingUsecase.GetSubscription(c.Request.Context(), orgID),
	})
}

// GetPlan handles GET /api/billing/plan
func (h *BillingHandler) GetPlan(c *gin.Context) {
	c.JSON(http.StatusOK, h.billingUsecase.CurrentPlan(c.Request.Context(), authdelivery.OrgID(c)))
}

// Webhook handles POST /api/stripe/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if err := h.billingUsecase.RecordWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		log.Printf("[Billing] Webhook rejected: %v", err)
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
