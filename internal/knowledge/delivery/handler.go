package delivery

import (
	"net/http"
	"strconv"

	authdelivery "inboxpilot-backend/internal/auth/delivery"
	"inboxpilot-backend/internal/knowledge/domain"
	"inboxpilot-backend/internal/knowledge/usecase"
	"inboxpilot-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type CrawlRequest struct {
	URL          string           `json:"url" binding:"required"`
	Mode         domain.CrawlMode `json:"mode"`
	ExcludePaths []string         `json:"exclude_paths"`
}

type RemovePagesRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

type KnowledgeHandler struct {
	knowledgeUsecase usecase.KnowledgeUsecase
}

func NewKnowledgeHandler(knowledgeUsecase usecase.KnowledgeUsecase) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeUsecase: knowledgeUsecase}
}

// GetSource handles GET /api/sources
func (h *KnowledgeHandler) GetSource(c *gin.Context) {
	source, err := h.knowledgeUsecase.GetSource(c.Request.Context(), authdelivery.OrgID(c))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, source)
}

// Crawl handles POST /api/sources/website
func (h *KnowledgeHandler) Crawl(c *gin.Context) {
	var req CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.knowledgeUsecase.CrawlWebsite(c.Request.Context(), authdelivery.OrgID(c), req.URL, req.Mode, req.ExcludePaths)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemovePages handles DELETE /api/sources/website
func (h *KnowledgeHandler) RemovePages(c *gin.Context) {
	var req RemovePagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	source, err := h.knowledgeUsecase.RemovePages(c.Request.Context(), authdelivery.OrgID(c), req.URLs)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, source)
}

// Search handles GET /api/sources/search?q=&limit=
func (h *KnowledgeHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	hits, err := h.knowledgeUsecase.SearchPages(c.Request.Context(), authdelivery.OrgID(c), c.Query("q"), limit)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}
