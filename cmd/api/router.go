package api

import (
	"net/http"

	"inboxpilot-backend/internal/auth/delivery"
	"inboxpilot-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// OAuth callbacks: the browser arrives from the provider, so auth is optional
		callbacks := api.Group("")
		if h.CallbackLimiter != nil {
			callbacks.Use(h.CallbackLimiter.Middleware())
		}
		callbacks.Use(delivery.OptionalAuthMiddleware(h.AuthUsecase))
		{
			callbacks.GET("/gmail/authorize", h.Connection.GmailCallback)
			callbacks.GET("/outlook/authorize", h.Connection.OutlookCallback)
		}

		// Provider webhooks (verified by signature or clientState)
		api.POST("/outlook/notifications", h.Outlook.Notify)
		api.POST("/stripe/webhook", h.Billing.Webhook)

		protected := api.Group("")
		protected.Use(delivery.AuthMiddleware(h.AuthUsecase))

		connections := protected.Group("/connections")
		{
			connections.GET("", h.Connection.List)
			connections.POST("/authorize/:provider", h.Connection.Authorize)
			connections.PATCH("/:email", h.Connection.UpdateSettings)
			connections.POST("/:email/renew", h.Connection.Renew)
			connections.DELETE("/:email", h.Connection.Disconnect)
		}

		protected.GET("/organization", h.Organization.GetOrganization)

		configuration := protected.Group("/configuration")
		{
			configuration.GET("", h.Organization.GetConfiguration)
			configuration.POST("/:list", h.Organization.AddToList)
			configuration.DELETE("/:list", h.Organization.RemoveFromList)
		}

		logs := protected.Group("/logs")
		{
			logs.GET("", h.Activity.ListLogs)
			logs.POST("", h.Activity.RecordLog)
			logs.DELETE("", h.Activity.RemoveLogs)
			logs.DELETE("/:id", h.Activity.RemoveLog)
		}

		escalations := protected.Group("/escalations")
		{
			escalations.GET("", h.Activity.ListEscalations)
			escalations.POST("", h.Activity.RecordEscalation)
			escalations.DELETE("", h.Activity.RemoveEscalations)
			escalations.DELETE("/:id", h.Activity.RemoveEscalation)
		}

		billing := protected.Group("/billing")
		{
			billing.GET("/subscription", h.Billing.GetSubscription)
			billing.GET("/plan", h.Billing.GetPlan)
		}

		sources := protected.Group("/sources")
		{
			sources.GET("", h.Knowledge.GetSource)
			sources.GET("/search", h.Knowledge.Search)
			sources.POST("/website", h.Knowledge.Crawl)
			sources.DELETE("/website", h.Knowledge.RemovePages)
		}
	}
}
