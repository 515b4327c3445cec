package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type outlookNotification struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientState    string `json:"clientState"`
	ChangeType     string `json:"changeType"`
	Resource       string `json:"resource"`
}

type outlookPayload struct {
	Value []outlookNotification `json:"value"`
}

// OutlookHandler receives Microsoft Graph change notifications.
type OutlookHandler struct {
	intake      *Intake
	clientState string
}

func NewOutlookHandler(intake *Intake, clientState string) *OutlookHandler {
	return &OutlookHandler{intake: intake, clientState: clientState}
}

// Notify handles POST /api/outlook/notifications
func (h *OutlookHandler) Notify(c *gin.Context) {
	// Graph validates a new subscription by expecting the token echoed back
	if token := c.Query("validationToken"); token != "" {
		c.String(http.StatusOK, token)
		return
	}

	var payload outlookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification payload"})
		return
	}
	for _, n := range payload.Value {
		h.intake.HandleOutlook(c.Request.Context(), n.SubscriptionID, n.ClientState, h.clientState)
	}
	c.Status(http.StatusAccepted)
}
