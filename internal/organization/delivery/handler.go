package delivery

import (
	"net/http"

	authdelivery "inboxpilot-backend/internal/auth/delivery"
	"inboxpilot-backend/internal/organization/domain"
	"inboxpilot-backend/internal/organization/usecase"
	"inboxpilot-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ListValueRequest struct {
	Value string `json:"value" binding:"required"`
}

type ListResponse struct {
	List   domain.ListName    `json:"list"`
	Values domain.StringArray `json:"values"`
}

type OrganizationHandler struct {
	organizationUsecase usecase.OrganizationUsecase
}

func NewOrganizationHandler(organizationUsecase usecase.OrganizationUsecase) *OrganizationHandler {
	return &OrganizationHandler{organizationUsecase: organizationUsecase}
}

func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, err := h.organizationUsecase.GetOrganization(c.Request.Context(), authdelivery.OrgID(c))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) GetConfiguration(c *gin.Context) {
	cfg, err := h.organizationUsecase.GetConfiguration(c.Request.Context(), authdelivery.OrgID(c))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// AddToList handles POST /api/configuration/:list
func (h *OrganizationHandler) AddToList(c *gin.Context) {
	var req ListValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list := domain.ListName(c.Param("list"))
	values, err := h.organizationUsecase.AddToList(c.Request.Context(), authdelivery.OrgID(c), list, req.Value)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{List: list, Values: values})
}

// RemoveFromList handles DELETE /api/configuration/:list
func (h *OrganizationHandler) RemoveFromList(c *gin.Context) {
	var req ListValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list := domain.ListName(c.Param("list"))
	values, err := h.organizationUsecase.RemoveFromList(c.Request.Context(), authdelivery.OrgID(c), list, req.Value)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{List: list, Values: values})
}
