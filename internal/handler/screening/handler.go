package screening

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opticheck/screening-api/internal/handler"
	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/service/screening"
)

type Handler struct {
	svc *screening.Service
}

func NewHandler(svc *screening.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	screenings := r.Group("/screenings")
	{
		screenings.POST("", h.CreateScreening)
		screenings.GET("", h.ListScreenings)
		screenings.GET("/:id", h.GetScreening)
		screenings.PUT("/:id", h.UpdateScreening)
	}
	r.GET("/patients/:id/screenings", h.ListPatientScreenings)
}

// RegisterDeleteRoute keeps the delete endpoint on a capability-gated
// group, same split as patients.
func (h *Handler) RegisterDeleteRoute(r *gin.RouterGroup) {
	r.DELETE("/screenings/:id", h.DeleteScreening)
}

func (h *Handler) CreateScreening(c *gin.Context) {
	var req model.CreateScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient_id"))
		return
	}
	date, err := time.Parse("2006-01-02", req.ScreeningDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid screening_date"))
		return
	}

	s := &model.Screening{
		PatientID:      patientID,
		ScreenedBy:     handler.CurrentActor(c).ID,
		ScreeningDate:  date,
		VisualAcuityL:  req.VisualAcuityL,
		VisualAcuityR:  req.VisualAcuityR,
		ColorVision:    req.ColorVision,
		Referral:       req.Referral,
		ReferralReason: req.ReferralReason,
		Notes:          req.Notes,
	}

	s, err = h.svc.Create(c.Request.Context(), s)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(s))
}

func (h *Handler) GetScreening(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid screening ID"))
		return
	}

	s, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) UpdateScreening(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid screening ID"))
		return
	}

	var req model.UpdateScreeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	s, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

// DeleteScreening is soft by default; ?force=true destroys the row.
// Any malformed force value falls back to the reversible path.
func (h *Handler) DeleteScreening(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid screening ID"))
		return
	}

	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	if err := h.svc.Delete(c.Request.Context(), id, force, handler.CurrentActor(c)); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "screening deleted", "force": force}))
}

func (h *Handler) ListScreenings(c *gin.Context) {
	var filters model.ScreeningFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	screenings, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(screenings))
}

func (h *Handler) ListPatientScreenings(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	screenings, err := h.svc.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(screenings))
}
