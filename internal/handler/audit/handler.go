package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opticheck/screening-api/internal/handler"
	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/service/audit"
)

type Handler struct {
	svc *audit.Service
}

func NewHandler(svc *audit.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects a group already gated on the audit-view
// capability.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit/events", h.ListEvents)
}

func (h *Handler) ListEvents(c *gin.Context) {
	var filters model.SecurityEventFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	events, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}
