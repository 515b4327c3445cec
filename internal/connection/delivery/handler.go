package delivery

import (
	"errors"
	"log"
	"net/http"
	"time"

	authdelivery "inboxpilot-backend/internal/auth/delivery"
	"inboxpilot-backend/internal/connection/domain"
	"inboxpilot-backend/internal/connection/dto"
	"inboxpilot-backend/internal/connection/usecase"
	"inboxpilot-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// connectCookieTTL bounds how long the consent screen may stay open.
const connectCookieTTL = 10 * time.Minute

type ConnectionHandler struct {
	connectionUsecase usecase.ConnectionUsecase
	dashboardURL      string
}

func NewConnectionHandler(connectionUsecase usecase.ConnectionUsecase, dashboardURL string) *ConnectionHandler {
	return &ConnectionHandler{
		connectionUsecase: connectionUsecase,
		dashboardURL:      dashboardURL,
	}
}

// Authorize returns the provider consent URL for the caller's organization.
func (h *ConnectionHandler) Authorize(c *gin.Context) {
	var req dto.AuthorizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	meta := domain.StateMetadata{
		OrgID:     authdelivery.OrgID(c),
		Purpose:   req.Purpose,
		Frequency: req.Frequency,
		SendMode:  req.SendMode,
		RevealAI:  req.RevealAI,
	}
	url, err := h.connectionUsecase.Authorize(c.Request.Context(), domain.Provider(c.Param("provider")), meta)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	if token := authdelivery.AccessToken(c); token != "" {
		setConnectCookie(c, token, int(connectCookieTTL.Seconds()))
	}
	c.JSON(http.StatusOK, dto.AuthorizeResponse{URL: url})
}

// setConnectCookie scopes the dashboard token to the API so the provider
// redirect can be tied back to the caller. maxAge < 0 clears it.
func setConnectCookie(c *gin.Context, token string, maxAge int) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authdelivery.ConnectCookie, token, maxAge, "/api", "", secure, true)
}

// GmailCallback handles GET /api/gmail/authorize.
func (h *ConnectionHandler) GmailCallback(c *gin.Context) {
	h.callback(c, domain.ProviderGoogle)
}

// OutlookCallback handles GET /api/outlook/authorize.
func (h *ConnectionHandler) OutlookCallback(c *gin.Context) {
	h.callback(c, domain.ProviderOutlook)
}

func (h *ConnectionHandler) callback(c *gin.Context, provider domain.Provider) {
	code := c.Query("code")
	if code == "" {
		// consent was declined or the user navigated here directly
		c.Redirect(http.StatusFound, h.dashboardURL)
		return
	}

	_, err := h.connectionUsecase.HandleCallback(c.Request.Context(), provider, code, c.Query("state"), authdelivery.OrgID(c))
	if _, cerr := c.Cookie(authdelivery.ConnectCookie); cerr == nil {
		setConnectCookie(c, "", -1)
	}
	if err != nil {
		log.Printf("[OAuth] Error exchanging code for tokens: %v", err)
		if errors.Is(err, apperror.ErrDuplicateAccount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange code for tokens: " + err.Error()})
		return
	}

	c.Redirect(http.StatusFound, h.dashboardURL)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	mailboxes, err := h.connectionUsecase.ListConnected(c.Request.Context(), authdelivery.OrgID(c))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	if mailboxes == nil {
		mailboxes = []*domain.ConnectedMailbox{}
	}
	c.JSON(http.StatusOK, dto.ConnectedResponse{Connected: mailboxes})
}

func (h *ConnectionHandler) UpdateSettings(c *gin.Context) {
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mailbox, err := h.connectionUsecase.UpdateSettings(c.Request.Context(), authdelivery.OrgID(c), c.Param("email"), patch)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, mailbox)
}

func (h *ConnectionHandler) Renew(c *gin.Context) {
	mailbox, err := h.connectionUsecase.RenewSubscription(c.Request.Context(), authdelivery.OrgID(c), c.Param("email"))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, mailbox)
}

func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	if err := h.connectionUsecase.Disconnect(c.Request.Context(), authdelivery.OrgID(c), c.Param("email")); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connected mailbox removed"})
}
