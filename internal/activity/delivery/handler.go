package delivery

import (
	"net/http"
	"strconv"
	"time"

	"inboxpilot-backend/internal/activity/domain"
	"inboxpilot-backend/internal/activity/usecase"
	authdelivery "inboxpilot-backend/internal/auth/delivery"
	"inboxpilot-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityUsecase usecase.ActivityUsecase
}

func NewActivityHandler(activityUsecase usecase.ActivityUsecase) *ActivityHandler {
	return &ActivityHandler{activityUsecase: activityUsecase}
}

type listResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type removedResponse struct {
	RemovedCount int64 `json:"removedCount"`
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// timeframe reads optional RFC3339 start/end query parameters.
func timeframe(c *gin.Context) (*time.Time, *time.Time, error) {
	parse := func(key string) (*time.Time, error) {
		raw := c.Query(key)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, apperror.Validation(key + " must be an RFC3339 timestamp")
		}
		return &t, nil
	}
	start, err := parse("start")
	if err != nil {
		return nil, nil, err
	}
	end, err := parse("end")
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// ListLogs handles GET /api/logs
func (h *ActivityHandler) ListLogs(c *gin.Context) {
	limit, offset := pagination(c)
	logs, total, err := h.activityUsecase.ListLogs(c.Request.Context(), authdelivery.OrgID(c), limit, offset)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	if logs == nil {
		logs = []*domain.EmailLog{}
	}
	c.JSON(http.StatusOK, listResponse{Items: logs, Total: total, Limit: limit, Offset: offset})
}

// RecordLog handles POST /api/logs
func (h *ActivityHandler) RecordLog(c *gin.Context) {
	var entry domain.EmailLog
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry.OrgID = authdelivery.OrgID(c)
	if err := h.activityUsecase.RecordLog(c.Request.Context(), &entry); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RemoveLog handles DELETE /api/logs/:id
func (h *ActivityHandler) RemoveLog(c *gin.Context) {
	if err := h.activityUsecase.RemoveLog(c.Request.Context(), authdelivery.OrgID(c), c.Param("id")); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, removedResponse{RemovedCount: 1})
}

// RemoveLogs handles DELETE /api/logs?start=&end=
func (h *ActivityHandler) RemoveLogs(c *gin.Context) {
	start, end, err := timeframe(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	n, err := h.activityUsecase.RemoveLogs(c.Request.Context(), authdelivery.OrgID(c), start, end)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, removedResponse{RemovedCount: n})
}

// ListEscalations handles GET /api/escalations
func (h *ActivityHandler) ListEscalations(c *gin.Context) {
	limit, offset := pagination(c)
	escalations, total, err := h.activityUsecase.ListEscalations(c.Request.Context(), authdelivery.OrgID(c), limit, offset)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	if escalations == nil {
		escalations = []*domain.Escalation{}
	}
	c.JSON(http.StatusOK, listResponse{Items: escalations, Total: total, Limit: limit, Offset: offset})
}

// RecordEscalation handles POST /api/escalations
func (h *ActivityHandler) RecordEscalation(c *gin.Context) {
	var escalation domain.Escalation
	if err := c.ShouldBindJSON(&escalation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	escalation.OrgID = authdelivery.OrgID(c)
	if err := h.activityUsecase.RecordEscalation(c.Request.Context(), &escalation); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, escalation)
}

// RemoveEscalation handles DELETE /api/escalations/:id
func (h *ActivityHandler) RemoveEscalation(c *gin.Context) {
	if err := h.activityUsecase.RemoveEscalation(c.Request.Context(), authdelivery.OrgID(c), c.Param("id")); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, removedResponse{RemovedCount: 1})
}

// RemoveEscalations handles DELETE /api/escalations?start=&end=
func (h *ActivityHandler) RemoveEscalations(c *gin.Context) {
	start, end, err := timeframe(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	n, err := h.activityUsecase.RemoveEscalations(c.Request.Context(), authdelivery.OrgID(c), start, end)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, removedResponse{RemovedCount: n})
}
