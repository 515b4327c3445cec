package api

import (
	activityDelivery "inboxpilot-backend/internal/activity/delivery"
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	billingDelivery "inboxpilot-backend/internal/billing/delivery"
	connectionDelivery "inboxpilot-backend/internal/connection/delivery"
	knowledgeDelivery "inboxpilot-backend/internal/knowledge/delivery"
	"inboxpilot-backend/internal/notification"
	organizationDelivery "inboxpilot-backend/internal/organization/delivery"
	"inboxpilot-backend/pkg/metrics"
	"inboxpilot-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Handler holds every HTTP handler the API serves.
type Handler struct {
	AuthUsecase  authUsecase.AuthUsecase
	Connection   *connectionDelivery.ConnectionHandler
	Organization *organizationDelivery.OrganizationHandler
	Activity     *activityDelivery.ActivityHandler
	Billing      *billingDelivery.BillingHandler
	Knowledge    *knowledgeDelivery.KnowledgeHandler
	Outlook      *notification.OutlookHandler
	// CallbackLimiter throttles the public OAuth callbacks per client IP.
	CallbackLimiter *ratelimit.IPRateLimiter
}

// Router builds the gin engine with middleware and routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)
	return r
}
