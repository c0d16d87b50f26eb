package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opticheck/screening-api/internal/handler"
	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/service/auth"
	"github.com/opticheck/screening-api/pkg/metrics"
)

type Handler struct {
	svc     *auth.Service
	metrics *metrics.Metrics
}

func NewHandler(svc *auth.Service, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, h.meta(c))
	if err != nil {
		h.countLogin(loginOutcome(err))
		handler.Error(c, err)
		return
	}

	h.countLogin("success")
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken, h.meta(c))
	if err != nil {
		// Expired, tampered and wrong-kind tokens all land here with
		// the same body.
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid refresh token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// Always 200: the response must not reveal whether the address has
	// an account.
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponse("if the email exists, a reset link will be sent"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("if the email exists, a reset link will be sent"))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// One generic body for every failure mode; the wrapped cause stays
	// in server-side logs, not in the response.
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword, h.meta(c)); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid or expired reset token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("password reset successfully"))
}

func (h *Handler) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func loginOutcome(err error) string {
	if errors.Is(err, model.ErrAccountLocked) {
		return "locked"
	}
	return "failure"
}

func (h *Handler) meta(c *gin.Context) auth.RequestMeta {
	return auth.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
